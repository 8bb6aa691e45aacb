package config

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-sql-driver/mysql"
)

const redactedPassword = "xxxxx"

// password= / pwd= keys at the start of a key=value pair
var passwordKey = regexp.MustCompile(`(?i)(?:^|[\s;])(?:password|pwd)\s*=\s*`)

// user:password@ when the DSN is not one the mysql driver can parse.
// Greedy up to the last '@', the way the driver splits.
var userInfoPassword = regexp.MustCompile(`^([^:@/]+):.*@`)

// Redact masks the password in a connection string so it can be logged.
// It understands URLs, key=value strings separated by spaces or semicolons
// and mysql DSNs.
func Redact(dsn string) string {
	if strings.Contains(dsn, "://") {
		if u, err := url.Parse(dsn); err == nil && u.User != nil {
			if _, has := u.User.Password(); has {
				u.User = url.UserPassword(u.User.Username(), redactedPassword)
				return u.String()
			}
			return dsn
		}
	}

	if passwordKey.MatchString(dsn) {
		return redactKeyValue(dsn)
	}

	if !strings.Contains(dsn, "@") {
		return dsn
	}
	if cfg, err := mysql.ParseDSN(dsn); err == nil {
		if cfg.Passwd == "" {
			return dsn
		}
		cfg.Passwd = redactedPassword
		return cfg.FormatDSN()
	}
	return userInfoPassword.ReplaceAllString(dsn, "${1}:"+redactedPassword+"@")
}

func redactKeyValue(dsn string) string {
	var b strings.Builder
	last := 0
	for _, loc := range passwordKey.FindAllStringIndex(dsn, -1) {
		// inside a value that was already masked
		if loc[0] < last {
			continue
		}
		b.WriteString(dsn[last:loc[1]])
		b.WriteString(redactedPassword)
		last = valueEnd(dsn, loc[1])
	}
	b.WriteString(dsn[last:])
	return b.String()
}

// valueEnd returns the index just past the value starting at i. Quoted
// values end at the matching quote; a doubled quote or a backslash escapes
// it. Bare values end at whitespace or ';' unless backslash-escaped.
// An unterminated value runs to the end of the string.
func valueEnd(s string, i int) int {
	if i < len(s) && (s[i] == '\'' || s[i] == '"') {
		quote := s[i]
		for j := i + 1; j < len(s); j++ {
			switch {
			case s[j] == '\\':
				j++
			case s[j] == quote:
				if j+1 < len(s) && s[j+1] == quote {
					j++
					continue
				}
				return j + 1
			}
		}
		return len(s)
	}

	for j := i; j < len(s); j++ {
		switch {
		case s[j] == '\\':
			j++
		case s[j] == ';' || unicode.IsSpace(rune(s[j])):
			return j
		}
	}
	return len(s)
}
