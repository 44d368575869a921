package contacts

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"campaign-console/internal/models"
)

// Phones shorter than this after normalization are discarded.
const minPhoneDigits = 8

var (
	entrySplitter = regexp.MustCompile(`[\n,;]+`)
	nonDigits     = regexp.MustCompile(`\D`)
	digitRun      = regexp.MustCompile(`[0-9]{10,}`)
)

// Normalize strips every non-digit character from a raw entry.
func Normalize(raw string) string {
	return nonDigits.ReplaceAllString(raw, "")
}

// ParseResult carries the contacts built from one input plus the number of
// entries dropped for being too short. Duplicates are collapsed at build time,
// first occurrence wins for the Original display text.
type ParseResult struct {
	Contacts []models.Contact
	Dropped  int
}

// ParseText splits free text on newlines, commas and semicolons and builds a
// deduplicated contact list in input order.
func ParseText(text string) ParseResult {
	var result ParseResult
	seen := make(map[string]bool)
	for _, entry := range entrySplitter.Split(text, -1) {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		phone := Normalize(entry)
		if len(phone) < minPhoneDigits {
			result.Dropped++
			continue
		}
		if seen[phone] {
			continue
		}
		seen[phone] = true
		result.Contacts = append(result.Contacts, models.Contact{
			Phone:    phone,
			Original: entry,
			Status:   models.ContactPending,
		})
	}
	return result
}

// ParseFile scans each line of an uploaded file for the first run of ten or
// more digits. Lines without one are dropped.
func ParseFile(r io.Reader) (ParseResult, error) {
	var result ParseResult
	seen := make(map[string]bool)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		phone := digitRun.FindString(line)
		if phone == "" {
			result.Dropped++
			continue
		}
		if seen[phone] {
			continue
		}
		seen[phone] = true
		result.Contacts = append(result.Contacts, models.Contact{
			Phone:    phone,
			Original: line,
			Status:   models.ContactPending,
		})
	}
	if err := scanner.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// MergeLists appends src onto dst, keeping dst's order and skipping phones dst
// already holds. Used when manual entry and file upload feed the same list.
func MergeLists(dst, src []models.Contact) []models.Contact {
	seen := make(map[string]bool, len(dst))
	for _, c := range dst {
		seen[c.Phone] = true
	}
	for _, c := range src {
		if seen[c.Phone] {
			continue
		}
		seen[c.Phone] = true
		dst = append(dst, c)
	}
	return dst
}

// Reconcile produces the final send list: main minus exclusion minus blocked,
// preserving the main list's relative order.
func Reconcile(main, exclusion []models.Contact, blocked []string) []models.Contact {
	skip := make(map[string]bool, len(exclusion)+len(blocked))
	for _, c := range exclusion {
		skip[c.Phone] = true
	}
	for _, phone := range blocked {
		skip[phone] = true
	}

	final := make([]models.Contact, 0, len(main))
	for _, c := range main {
		if skip[c.Phone] {
			continue
		}
		final = append(final, c)
	}
	return final
}

// Phones extracts the normalized numbers of a contact list in order.
func Phones(list []models.Contact) []string {
	phones := make([]string, len(list))
	for i, c := range list {
		phones[i] = c.Phone
	}
	return phones
}
