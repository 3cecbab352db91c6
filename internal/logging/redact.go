package logging

import (
	"regexp"
	"strings"
)

const redacted = "***"

// Graph API and Telegram errors echo request URLs, which carry credentials
// in the query string or the bot path segment.
var (
	tokenParam   = regexp.MustCompile(`((?i:access_token|upload_token|input_token|key)=)[^&\s"']+`)
	telegramBot  = regexp.MustCompile(`(/bot)[0-9]+:[A-Za-z0-9_-]+`)
	proxyUserinf = regexp.MustCompile(`(://)[^/@\s"']+@`)
)

// secretKey reports whether an attribute key names a credential.
func secretKey(key string) bool {
	key = strings.ToLower(key)
	if i := strings.LastIndexByte(key, '.'); i >= 0 {
		key = key[i+1:]
	}
	switch key {
	case "token", "access_token", "refresh_token", "page_token", "ig_token", "telegram_token", "password", "secret":
		return true
	}
	return strings.HasSuffix(key, "_secret")
}

// Redact masks credentials embedded in free text such as error messages.
func Redact(s string) string {
	if !strings.ContainsAny(s, "=@/") {
		return s
	}
	s = tokenParam.ReplaceAllString(s, "${1}"+redacted)
	s = telegramBot.ReplaceAllString(s, "${1}"+redacted)
	return proxyUserinf.ReplaceAllString(s, "${1}"+redacted+"@")
}
