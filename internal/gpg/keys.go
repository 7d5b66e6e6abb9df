package gpg

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"net/mail"
	"strings"
)

type userID struct {
	raw   string
	name  string
	email string
}

type secretKey struct {
	keyID       string
	fingerprint string
	validity    string
	canEncrypt  bool
	uids        []userID
}

// parseSecretKeys reads `gpg --with-colons --list-secret-keys` output.
// Field layout: https://github.com/gpg/gnupg/blob/master/doc/DETAILS
func parseSecretKeys(out []byte) []secretKey {
	var keys []secretKey
	var cur *secretKey
	// fpr records follow their key or subkey; only the primary one matters.
	wantFpr := false
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		f := strings.Split(sc.Text(), ":")
		switch f[0] {
		case "sec":
			keys = append(keys, secretKey{
				validity:   field(f, 1),
				keyID:      field(f, 4),
				canEncrypt: strings.Contains(field(f, 11), "E"),
			})
			cur = &keys[len(keys)-1]
			wantFpr = true
		case "ssb":
			wantFpr = false
		case "fpr":
			if cur != nil && wantFpr {
				cur.fingerprint = field(f, 9)
				wantFpr = false
			}
		case "uid":
			if cur != nil {
				cur.uids = append(cur.uids, parseUserID(unescape(field(f, 9))))
			}
		}
	}
	return keys
}

func selectKey(keys []secretKey, identity string) (secretKey, bool) {
	for _, k := range keys {
		if !k.canEncrypt || k.fingerprint == "" {
			continue
		}
		switch k.validity {
		case "r", "e", "d", "i":
			continue
		}
		if identity == "" || k.matches(identity) {
			return k, true
		}
	}
	return secretKey{}, false
}

func (k secretKey) matches(identity string) bool {
	id := strings.ToUpper(strings.TrimPrefix(identity, "0x"))
	if len(id) >= 8 && (strings.HasSuffix(k.fingerprint, id) || strings.HasSuffix(k.keyID, id)) {
		return true
	}
	for _, u := range k.uids {
		if u.name == identity || u.raw == identity || (u.email != "" && strings.EqualFold(u.email, identity)) {
			return true
		}
	}
	return false
}

func parseUserID(raw string) userID {
	u := userID{raw: raw, name: raw}
	if addr, err := mail.ParseAddress(raw); err == nil {
		u.email = addr.Address
		u.name = addr.Name
	}
	// Drop a trailing "(comment)" from the name.
	if i := strings.LastIndex(u.name, " ("); i > 0 && strings.HasSuffix(u.name, ")") {
		u.name = u.name[:i]
	}
	return u
}

func field(f []string, i int) string {
	if i < len(f) {
		return f[i]
	}
	return ""
}

// unescape decodes the \xHH escapes gpg uses in colon listings.
func unescape(s string) string {
	if !strings.Contains(s, `\x`) {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+3 < len(s) && s[i+1] == 'x' {
			if b, err := hex.DecodeString(s[i+2 : i+4]); err == nil {
				sb.Write(b)
				i += 3
				continue
			}
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}
