package http

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"

	"callmonitor-bridge/internal/common/errors"
)

// digestNonceCount is constant because every request answers a fresh challenge.
const digestNonceCount = "00000001"

// Challenge is a parsed Digest WWW-Authenticate header.
type Challenge struct {
	Realm     string
	Nonce     string
	Opaque    string
	QOP       string
	Algorithm string
}

// ParseChallenge parses the value of a WWW-Authenticate header carrying a
// Digest challenge. qop defaults to auth and algorithm to MD5; any other
// algorithm is rejected.
func ParseChallenge(header string) (*Challenge, error) {
	scheme, rest, _ := strings.Cut(strings.TrimSpace(header), " ")
	if !strings.EqualFold(scheme, "digest") {
		return nil, errors.ProtocolError(fmt.Sprintf("expected Digest challenge, got: %s", header))
	}

	params := parseAuthParams(rest)
	ch := &Challenge{
		Realm:     params["realm"],
		Nonce:     params["nonce"],
		Opaque:    params["opaque"],
		QOP:       "auth",
		Algorithm: "MD5",
	}

	if alg, ok := params["algorithm"]; ok && alg != "" {
		ch.Algorithm = alg
	}
	if !strings.EqualFold(ch.Algorithm, "MD5") {
		return nil, errors.ProtocolError("unsupported digest algorithm").
			WithContext("algorithm", ch.Algorithm)
	}
	ch.Algorithm = "MD5"

	if qop, ok := params["qop"]; ok && qop != "" {
		supported := false
		for _, q := range strings.Split(qop, ",") {
			if strings.EqualFold(strings.TrimSpace(q), "auth") {
				supported = true
				break
			}
		}
		if !supported {
			return nil, errors.ProtocolError("unsupported digest qop").WithContext("qop", qop)
		}
	}

	if ch.Nonce == "" {
		return nil, errors.ProtocolError("digest challenge without nonce")
	}

	return ch, nil
}

// parseAuthParams splits a comma separated list of key=value pairs. Quoted
// values may contain commas and backslash escapes.
func parseAuthParams(s string) map[string]string {
	params := make(map[string]string)

	for len(s) > 0 {
		s = strings.TrimLeft(s, " \t,")
		if s == "" {
			break
		}

		eq := strings.IndexByte(s, '=')
		if eq < 0 {
			break
		}
		key := strings.ToLower(strings.TrimSpace(s[:eq]))
		s = strings.TrimLeft(s[eq+1:], " \t")

		var value string
		if strings.HasPrefix(s, `"`) {
			var b strings.Builder
			i := 1
			for ; i < len(s); i++ {
				c := s[i]
				if c == '\\' && i+1 < len(s) {
					i++
					b.WriteByte(s[i])
					continue
				}
				if c == '"' {
					break
				}
				b.WriteByte(c)
			}
			value = b.String()
			if i < len(s) {
				i++
			}
			s = s[i:]
		} else {
			end := strings.IndexByte(s, ',')
			if end < 0 {
				end = len(s)
			}
			value = strings.TrimSpace(s[:end])
			s = s[end:]
		}

		params[key] = value
	}

	return params
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Response computes the request-digest for qop=auth:
// MD5(MD5(user:realm:pass):nonce:nc:cnonce:qop:MD5(method:uri)).
func (c *Challenge) Response(method, uri, username, password, nc, cnonce string) string {
	ha1 := md5Hex(username + ":" + c.Realm + ":" + password)
	ha2 := md5Hex(method + ":" + uri)
	return md5Hex(strings.Join([]string{ha1, c.Nonce, nc, cnonce, c.QOP, ha2}, ":"))
}

// Authorization builds the Authorization header answering the challenge.
func (c *Challenge) Authorization(method, uri, username, password, cnonce string) string {
	response := c.Response(method, uri, username, password, digestNonceCount, cnonce)

	var b strings.Builder
	fmt.Fprintf(&b, `Digest username="%s", realm="%s", nonce="%s", uri="%s", response="%s", algorithm=%s, qop=%s, nc=%s, cnonce="%s"`,
		username, c.Realm, c.Nonce, uri, response, c.Algorithm, c.QOP, digestNonceCount, cnonce)
	if c.Opaque != "" {
		fmt.Fprintf(&b, `, opaque="%s"`, c.Opaque)
	}
	return b.String()
}
