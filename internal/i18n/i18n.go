package i18n

import "strings"

// Language is a short language code (en, zh) used for user-visible tool
// failure reasons.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageChinese Language = "zh"

	// DefaultLanguage applies when nothing is configured.
	DefaultLanguage = LanguageEnglish
)

// Normalize maps user input to a canonical language code. Unknown values are
// kept as-is so a caller can still ask for them; empty falls back to the
// default.
func Normalize(value string) Language {
	lang := strings.ToLower(strings.TrimSpace(value))
	switch lang {
	case "", "en", "en-us", "en_us", "en-gb", "english":
		return LanguageEnglish
	case "zh", "zh-cn", "zh_cn", "zh-hans", "cn", "chinese", "中文":
		return LanguageChinese
	default:
		return Language(lang)
	}
}

// Code returns the canonical code, empty falling back to the default.
func (l Language) Code() string {
	if l == "" {
		return string(DefaultLanguage)
	}
	return string(Normalize(string(l)))
}

// Message keys for harness failure reasons.
const (
	MsgToolFailed     = "tool_failed"
	MsgNotPermitted   = "not_permitted"
	MsgInvalidPayload = "invalid_payload"
	MsgLimitExceeded  = "limit_exceeded"
	MsgNotFound       = "not_found"
	MsgTimedOut       = "timed_out"
	MsgCancelled      = "cancelled"
	MsgTruncated      = "truncated"
	MsgNoMatches      = "no_matches"
)

var catalog = map[Language]map[string]string{
	LanguageEnglish: {
		MsgToolFailed:     "failed",
		MsgNotPermitted:   "not permitted",
		MsgInvalidPayload: "invalid payload",
		MsgLimitExceeded:  "limit exceeded",
		MsgNotFound:       "not found",
		MsgTimedOut:       "timed out",
		MsgCancelled:      "cancelled",
		MsgTruncated:      "output truncated",
		MsgNoMatches:      "no matches found",
	},
	LanguageChinese: {
		MsgToolFailed:     "执行失败",
		MsgNotPermitted:   "没有权限",
		MsgInvalidPayload: "参数无效",
		MsgLimitExceeded:  "超出限制",
		MsgNotFound:       "未找到",
		MsgTimedOut:       "执行超时",
		MsgCancelled:      "已取消",
		MsgTruncated:      "输出已截断",
		MsgNoMatches:      "未找到匹配项",
	},
}

// T looks up a reason string. Unknown languages fall back to English, unknown
// keys fall back to the key itself so a missing entry is still visible.
func T(lang Language, key string) string {
	table, ok := catalog[Normalize(string(lang))]
	if !ok {
		table = catalog[LanguageEnglish]
	}
	if msg, ok := table[key]; ok {
		return msg
	}
	if msg, ok := catalog[LanguageEnglish][key]; ok {
		return msg
	}
	return key
}
