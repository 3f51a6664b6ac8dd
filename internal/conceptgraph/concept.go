package conceptgraph

import "errors"

// ErrUnknownConcept is returned by lookups that require a catalog concept.
var ErrUnknownConcept = errors.New("unknown concept")

// Level is a coarse grouping used for display. It plays no part in gating.
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelConfident    Level = "confident"
)

// AllLevels returns all levels in display order.
func AllLevels() []Level {
	return []Level{LevelBeginner, LevelIntermediate, LevelConfident}
}

// ParseLevel maps a free-form string to a Level. Unknown values report false.
func ParseLevel(s string) (Level, bool) {
	switch Level(s) {
	case LevelBeginner, LevelIntermediate, LevelConfident:
		return Level(s), true
	}
	return "", false
}

// Rank returns the display position of the level, or -1 if unknown.
func (l Level) Rank() int {
	switch l {
	case LevelBeginner:
		return 0
	case LevelIntermediate:
		return 1
	case LevelConfident:
		return 2
	default:
		return -1
	}
}

// Label returns a human-readable name for a level.
func (l Level) Label() string {
	switch l {
	case LevelBeginner:
		return "Beginner"
	case LevelIntermediate:
		return "Intermediate"
	case LevelConfident:
		return "Confident"
	default:
		return string(l)
	}
}

// Concept is a single node of the curriculum DAG.
type Concept struct {
	ID            string   `yaml:"id" json:"id"`
	Title         string   `yaml:"title" json:"title"`
	Description   string   `yaml:"description" json:"description"`
	Level         Level    `yaml:"level" json:"level"`
	Prerequisites []string `yaml:"prerequisites" json:"prerequisites"`
	EstimatedMins int      `yaml:"estimated_mins" json:"estimatedTime"`
	Difficulty    int      `yaml:"difficulty" json:"difficulty"`
}

// IsRoot reports whether the concept has no prerequisites.
func (c Concept) IsRoot() bool {
	return len(c.Prerequisites) == 0
}

// Status is a concept's state relative to one learner.
type Status string

const (
	StatusLocked     Status = "locked"      // Prerequisites not satisfied
	StatusAvailable  Status = "available"   // Unlockable, no meaningful confidence yet
	StatusInProgress Status = "in_progress" // Unlockable with partial confidence
	StatusCompleted  Status = "completed"   // Terminal
)

// ParseStatus maps a stored string to a Status. Unknown values report false.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusLocked, StatusAvailable, StatusInProgress, StatusCompleted:
		return Status(s), true
	}
	return "", false
}

// Open reports whether the learner may start the concept.
func (s Status) Open() bool {
	return s == StatusAvailable || s == StatusInProgress
}

// Icon returns the display icon for a status.
func (s Status) Icon() string {
	switch s {
	case StatusLocked:
		return "🔒"
	case StatusAvailable:
		return "🔓"
	case StatusInProgress:
		return "📖"
	case StatusCompleted:
		return "✅"
	default:
		return "?"
	}
}

// Label returns the display label for a status.
func (s Status) Label() string {
	switch s {
	case StatusLocked:
		return "Locked"
	case StatusAvailable:
		return "Available"
	case StatusInProgress:
		return "In Progress"
	case StatusCompleted:
		return "Completed"
	default:
		return "Unknown"
	}
}
