// Package callback parses the query and fragment parameters carried by
// inbound redirect URLs from the auth backend (password-recovery links and
// OAuth returns). Parsing is pure: the same URL always yields the same
// Params, and nothing is consumed at this layer.
package callback

import (
	"net/url"
	"strings"
)

// ParseFailed is set on Params.Error when the raw input could not be decoded.
const ParseFailed = "parse_failed"

// Params holds the recognized redirect parameters. Absent keys stay zero.
type Params struct {
	AccessToken      string
	RefreshToken     string
	Code             string
	Type             string
	RecoveryToken    string
	StateNonce       string
	Error            string
	ErrorDescription string
}

// Empty reports whether no recognized parameter was present at all.
func (p Params) Empty() bool {
	return p == Params{}
}

// HasSessionTokens reports whether the redirect carried an implicit-style
// token pair that can be turned into a session without a code exchange.
func (p Params) HasSessionTokens() bool {
	return p.AccessToken != "" && p.RefreshToken != ""
}

// IsRecovery reports whether the redirect is a password-recovery link.
func (p Params) IsRecovery() bool {
	return p.Type == "recovery" && p.RecoveryToken != ""
}

// Parse extracts recognized keys from the raw query string and fragment of a
// redirect URL. Different backend versions place the parameters in either
// part, so both are read, with query values winning on conflict. Malformed
// input yields Params{Error: ParseFailed} rather than an error.
func Parse(rawQuery, rawFragment string) Params {
	merged := url.Values{}

	// Fragment first so query-string values override it.
	for _, raw := range []string{strings.TrimPrefix(rawFragment, "#"), rawQuery} {
		if raw == "" {
			continue
		}
		values, err := url.ParseQuery(raw)
		if err != nil {
			return Params{Error: ParseFailed}
		}
		for key, vals := range values {
			if len(vals) > 0 && vals[0] != "" {
				merged.Set(key, vals[0])
			}
		}
	}

	p := Params{
		AccessToken:      merged.Get("access_token"),
		RefreshToken:     merged.Get("refresh_token"),
		Code:             merged.Get("code"),
		Type:             merged.Get("type"),
		StateNonce:       merged.Get("state"),
		Error:            merged.Get("error"),
		ErrorDescription: merged.Get("error_description"),
	}

	// Recovery links carry the token either as a dedicated "token" key or,
	// on older backends, as the access token itself.
	if p.Type == "recovery" {
		if token := merged.Get("token"); token != "" {
			p.RecoveryToken = token
		} else {
			p.RecoveryToken = p.AccessToken
		}
	}

	return p
}

// ConsumedKeys lists the URL parameter names the driver must strip once the
// redirect has been processed, so a reload cannot replay them.
func (p Params) ConsumedKeys() []string {
	var keys []string
	if p.AccessToken != "" {
		keys = append(keys, "access_token")
	}
	if p.RefreshToken != "" {
		keys = append(keys, "refresh_token")
	}
	if p.Code != "" {
		keys = append(keys, "code")
	}
	if p.Type != "" {
		keys = append(keys, "type")
	}
	if p.RecoveryToken != "" && p.RecoveryToken != p.AccessToken {
		keys = append(keys, "token")
	}
	if p.StateNonce != "" {
		keys = append(keys, "state")
	}
	if p.Error != "" {
		keys = append(keys, "error", "error_description")
	}
	return keys
}
