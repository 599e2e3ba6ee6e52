package fs

import (
	"bufio"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultPattern matches question files anywhere under the root.
const DefaultPattern = "**/*.txt"

// QuestionWalker finds question files under a directory.
type QuestionWalker struct {
	includes []string
	excludes []string
}

func NewQuestionWalker(includes, excludes []string) *QuestionWalker {
	if len(includes) == 0 {
		includes = []string{DefaultPattern}
	}
	return &QuestionWalker{
		includes: includes,
		excludes: excludes,
	}
}

// Walk returns matching files under root, sorted by path. Patterns are
// matched against slash-separated paths relative to root.
func (w *QuestionWalker) Walk(root string) ([]string, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if relPath != "." && w.shouldExclude(relPath+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if w.shouldInclude(relPath) && !w.shouldExclude(relPath) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

func (w *QuestionWalker) shouldInclude(path string) bool {
	return matchAny(w.includes, path)
}

func (w *QuestionWalker) shouldExclude(path string) bool {
	return matchAny(w.excludes, path)
}

func matchAny(patterns []string, path string) bool {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

// ReadQuestions returns one question per non-blank line. Lines starting
// with '#' are comments.
func ReadQuestions(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var questions []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		questions = append(questions, line)
	}
	return questions, sc.Err()
}
