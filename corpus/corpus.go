// Package corpus loads the six name lists (last/first/patronymic, each
// split male/female) that Generate draws synthetic subscribers from.
//
// Grounded on the original implementation's read_name_file/
// generate_random_name (data.inl): one name per line, loaded once at
// startup into an in-memory slice that is immutable and shared by
// reference across every generate worker.
package corpus

import (
	"bufio"
	"os"
	"path/filepath"

	"phonebook/models"
)

// File names of the six corpus lists, relative to the configured corpus
// directory (§6).
const (
	LastNameMale        = "last_name_male.csv"
	LastNameFemale      = "last_name_female.csv"
	FirstNameMale       = "first_name_male.csv"
	FirstNameFemale     = "first_name_female.csv"
	PatronymicMale      = "patronymic_male.csv"
	PatronymicFemale    = "patronymic_female.csv"
)

// Corpus holds the six loaded name lists.
type Corpus struct {
	LastMale     []string
	LastFemale   []string
	FirstMale    []string
	FirstFemale  []string
	PatMale      []string
	PatFemale    []string
}

// Load reads all six corpus files from dir. Any missing or empty file
// fails the whole load with BadCorpus, naming the offending file.
func Load(dir string) (*Corpus, error) {
	c := &Corpus{}
	var err error

	if c.LastMale, err = readNameFile(filepath.Join(dir, LastNameMale)); err != nil {
		return nil, err
	}
	if c.LastFemale, err = readNameFile(filepath.Join(dir, LastNameFemale)); err != nil {
		return nil, err
	}
	if c.FirstMale, err = readNameFile(filepath.Join(dir, FirstNameMale)); err != nil {
		return nil, err
	}
	if c.FirstFemale, err = readNameFile(filepath.Join(dir, FirstNameFemale)); err != nil {
		return nil, err
	}
	if c.PatMale, err = readNameFile(filepath.Join(dir, PatronymicMale)); err != nil {
		return nil, err
	}
	if c.PatFemale, err = readNameFile(filepath.Join(dir, PatronymicFemale)); err != nil {
		return nil, err
	}
	return c, nil
}

func readNameFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, models.NewFileError(models.KindBadCorpus, path, "corpus file unavailable: %v", err)
	}
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, models.NewFileError(models.KindBadCorpus, path, "corpus file unreadable: %v", err)
	}
	if len(names) == 0 {
		return nil, models.NewFileError(models.KindBadCorpus, path, "corpus file is empty")
	}
	return names, nil
}

// Sex selects which half of each paired corpus list a generated record
// draws from.
type Sex int

const (
	Male Sex = iota
	Female
)

// Last returns the last-name list for the given sex.
func (c *Corpus) Last(sex Sex) []string {
	if sex == Male {
		return c.LastMale
	}
	return c.LastFemale
}

// First returns the first-name list for the given sex.
func (c *Corpus) First(sex Sex) []string {
	if sex == Male {
		return c.FirstMale
	}
	return c.FirstFemale
}

// Patronymic returns the patronymic list for the given sex.
func (c *Corpus) Patronymic(sex Sex) []string {
	if sex == Male {
		return c.PatMale
	}
	return c.PatFemale
}
