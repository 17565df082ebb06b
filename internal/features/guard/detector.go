// Package guard защищает чат от спама: ссылки, флуд, длинные токены.
// detector.go — чистые классификаторы текста без состояния.
package guard

import "regexp"

var (
	// Ссылки: http(s):// или www. и дальше без пробелов
	linkPattern = regexp.MustCompile(`(?i)(https?://|www\.)\S+`)
	// Алфавитно-цифровые токены длиной от 15 символов
	longTokenPattern = regexp.MustCompile(`\b\w{15,}\b`)
)

// HasLink сообщает, содержит ли текст ссылку.
func HasLink(text string) bool {
	return linkPattern.MatchString(text)
}

// LongTokens возвращает все длинные токены сообщения.
// Пустой результат — правило не сработало.
func LongTokens(text string) []string {
	return longTokenPattern.FindAllString(text, -1)
}
