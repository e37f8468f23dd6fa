package domain

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const phoneRegion = "RU"

// PhoneNumber — номер в каноническом виде: "+7" и ровно 10 цифр.
// Получить его можно только через NormalizePhone.
type PhoneNumber struct {
	canonical string
}

// NormalizePhone выкидывает всё, кроме цифр, и приводит номер к виду +7XXXXXXXXXX.
// Принимаются 11 цифр с ведущей 7 или 8 и ровно 10 цифр. Остальное — невалидно.
func NormalizePhone(raw string) (PhoneNumber, bool) {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case len(digits) == 11 && (digits[0] == '7' || digits[0] == '8'):
		return PhoneNumber{canonical: "+7" + digits[1:]}, true
	case len(digits) == 10:
		return PhoneNumber{canonical: "+7" + digits}, true
	default:
		return PhoneNumber{}, false
	}
}

func (p PhoneNumber) String() string { return p.canonical }

func (p PhoneNumber) IsZero() bool { return p.canonical == "" }

// Digits — номер без "+", в таком виде его ждёт форма на сайте.
func (p PhoneNumber) Digits() string { return strings.TrimPrefix(p.canonical, "+") }

// Display форматирует номер для людей: "+7 999 123-45-67".
// Если библиотека не разобрала номер, отдаём канонический вид.
func (p PhoneNumber) Display() string {
	if p.canonical == "" {
		return ""
	}
	num, err := phonenumbers.Parse(p.canonical, phoneRegion)
	if err != nil {
		return p.canonical
	}
	return phonenumbers.Format(num, phonenumbers.INTERNATIONAL)
}
