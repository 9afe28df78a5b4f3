package redis

const (
	keyPrefix = "envo/"

	// KeyPrefixSession prefixes one key per live admin session.
	KeyPrefixSession = keyPrefix + "sessions/"
	// KeyPrefixAudit prefixes the daily admin audit lists.
	KeyPrefixAudit = keyPrefix + "audit/"
)
