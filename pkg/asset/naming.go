package asset

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/exp/rand"
	"golang.org/x/text/unicode/norm"
)

// Characters replaced by SanitizeFileName. File names reject path
// separators and wildcard characters on top of what directories reject.
const (
	invalidPathChars = "\"<>|"
	invalidNameChars = "\"<>|:*?\\/"
)

// SanitizeFileName replaces characters that are invalid in the directory
// or file-name part of path with '_'. Names are NFC-normalized so that
// decomposed source names map to the same asset file.
func SanitizeFileName(path string) string {
	dir, name := filepath.Split(path)
	return replaceInvalid(dir, invalidPathChars) + replaceInvalid(name, invalidNameChars)
}

func replaceInvalid(s, invalid string) string {
	s = norm.NFC.String(s)
	return strings.Map(func(r rune) rune {
		if r < 0x20 || strings.ContainsRune(invalid, r) {
			return '_'
		}
		return r
	}, s)
}

// FileName builds an asset file path inside dir from a base name and an
// optional suffix joined with '_'. Separators inside base or suffix are
// replaced rather than treated as subdirectories.
func FileName(dir, base, suffix string) string {
	name := base
	if suffix != "" {
		name += "_" + suffix
	}
	name = replaceInvalid(name+FileExtension, invalidNameChars)
	if dir == "" {
		return name
	}
	return SanitizeFileName(filepath.Join(dir, name))
}

const randomAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

var (
	randMu  sync.Mutex
	randSrc = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
)

// RandomString returns n random lowercase alphanumeric characters.
// Non-positive n yields 8 characters.
func RandomString(n int) string {
	if n <= 0 {
		n = 8
	}

	randMu.Lock()
	defer randMu.Unlock()

	b := make([]byte, n)
	for i := range b {
		b[i] = randomAlphabet[randSrc.Intn(len(randomAlphabet))]
	}
	return string(b)
}
