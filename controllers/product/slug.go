package productcontroller

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
)

var foldMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify lower-cases s, folds Vietnamese diacritics (đ becomes d) and joins
// the remaining letters and digits with single hyphens.
func Slugify(s string) string {
	folded, _, err := transform.String(foldMarks, s)
	if err != nil {
		folded = s
	}
	folded = strings.NewReplacer("đ", "d", "Đ", "d").Replace(folded)

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// uniqueSlug returns base, or base-2, base-3... when taken by another row of
// model.
func uniqueSlug(tx *gorm.DB, model any, base string, exceptID uint) (string, error) {
	if base == "" {
		base = "item"
	}
	slug := base
	for n := 2; ; n++ {
		var count int64
		if err := tx.Model(model).Where("slug = ? AND id <> ?", slug, exceptID).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return slug, nil
		}
		slug = base + "-" + strconv.Itoa(n)
	}
}
