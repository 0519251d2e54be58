package providers

import (
	"strings"
	"unicode"
)

// defaultStopWords — частые слова, которые не попадают в облако слов.
var defaultStopWords = []string{
	"a", "an", "and", "are", "at", "be", "but", "by", "for", "from", "has", "have",
	"in", "is", "it", "its", "of", "on", "or", "rt", "so", "that", "the", "this",
	"to", "was", "we", "with", "you", "your",
}

// minWordLength — слова короче не считаются.
const minWordLength = 3

// StopList — набор запрещённых слов. Сравнение без учёта регистра.
type StopList struct {
	words map[string]struct{}
}

// NewStopList создаёт StopList. Пустые слова игнорируются.
func NewStopList(words ...string) *StopList {
	s := &StopList{words: make(map[string]struct{}, len(words))}
	s.Add(words...)
	return s
}

// DefaultStopList возвращает StopList с частыми английскими словами.
func DefaultStopList() *StopList {
	return NewStopList(defaultStopWords...)
}

// Add добавляет слова.
func (s *StopList) Add(words ...string) {
	for _, w := range words {
		w = normalizeWord(w)
		if w != "" {
			s.words[w] = struct{}{}
		}
	}
}

// Len возвращает количество слов.
func (s *StopList) Len() int {
	return len(s.words)
}

// Contains проверяет одно слово.
func (s *StopList) Contains(word string) bool {
	_, ok := s.words[normalizeWord(word)]
	return ok
}

// Matches проверяет, содержит ли текст хотя бы одно слово из списка.
func (s *StopList) Matches(text string) bool {
	if len(s.words) == 0 {
		return false
	}
	for _, w := range splitWords(text) {
		if s.Contains(w) {
			return true
		}
	}
	return false
}

// Tokenize разбивает текст на слова для облака: без emoji, ссылок,
// коротких слов и слов из списка. Слова в нижнем регистре.
func (s *StopList) Tokenize(text string) []string {
	var result []string
	for _, w := range splitWords(StripEmojis(text)) {
		w = normalizeWord(w)
		if len([]rune(w)) < minWordLength || s.Contains(w) {
			continue
		}
		result = append(result, w)
	}
	return result
}

// StripEmojis удаляет emoji, оставляя остальной текст как есть.
func StripEmojis(text string) string {
	return strings.Map(func(r rune) rune {
		if isEmoji(r) {
			return -1
		}
		return r
	}, text)
}

func isEmoji(r rune) bool {
	switch {
	case r >= 0x1F000 && r <= 0x1FAFF: // пиктограммы, смайлы, флаги
		return true
	case r >= 0x2600 && r <= 0x27BF: // символы и dingbats
		return true
	case r == 0x200D || r == 0xFE0F: // ZWJ и variation selector
		return true
	case r >= 0x1F3FB && r <= 0x1F3FF: // тон кожи
		return true
	}
	return false
}

// splitWords режет текст по всему, что не буква, цифра, '#' или '@'.
// Ссылки отбрасываются целиком.
func splitWords(text string) []string {
	var words []string
	for _, field := range strings.Fields(text) {
		if strings.HasPrefix(field, "http://") || strings.HasPrefix(field, "https://") {
			continue
		}
		words = append(words, strings.FieldsFunc(field, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '#' && r != '@'
		})...)
	}
	return words
}

func normalizeWord(w string) string {
	return strings.ToLower(strings.TrimSpace(w))
}
