package sandbox

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

// Seed is the initial dataset. Users are referenced by email elsewhere in
// the file.
type Seed struct {
	Users       []SeedUser      `yaml:"users"`
	Courses     []SeedCourse    `yaml:"courses"`
	Communities []SeedCommunity `yaml:"communities"`
}

type SeedUser struct {
	Fullname string `yaml:"fullname"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
	Points   int    `yaml:"points"`
}

type SeedCourse struct {
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	Category    string         `yaml:"category"`
	Price       float64        `yaml:"price"`
	Instructor  string         `yaml:"instructor"`
	Lessons     []SeedLesson   `yaml:"lessons"`
	Questions   []SeedQuestion `yaml:"questions"`
}

type SeedLesson struct {
	Title    string `yaml:"title"`
	Content  string `yaml:"content"`
	VideoURL string `yaml:"videoUrl"`
}

type SeedQuestion struct {
	Question string       `yaml:"question"`
	Points   int          `yaml:"points"`
	Options  []SeedOption `yaml:"options"`
}

type SeedOption struct {
	Text      string `yaml:"text"`
	IsCorrect bool   `yaml:"isCorrect"`
}

type SeedCommunity struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Admin       string     `yaml:"admin"`
	Members     []string   `yaml:"members"`
	Posts       []SeedPost `yaml:"posts"`
}

type SeedPost struct {
	Author  string `yaml:"author"`
	Content string `yaml:"content"`
}

// LoadSeed parses the seed file at path, or the built-in seed when path
// is empty.
func LoadSeed(path string) (Seed, error) {
	raw := defaultSeed
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Seed{}, fmt.Errorf("read seed %s: %w", path, err)
		}
		raw = b
	}
	var seed Seed
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return Seed{}, fmt.Errorf("parse seed: %w", err)
	}
	return seed, nil
}
