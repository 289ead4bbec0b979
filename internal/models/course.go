package models

import "time"

type Course struct {
	ID            string    `json:"_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Category      string    `json:"category,omitempty"`
	Price         float64   `json:"price"`
	Instructor    Ref       `json:"instructor,omitempty"`
	Thumbnail     string    `json:"thumbnail,omitempty"`
	EnrolledUsers []Ref     `json:"enrolledUsers,omitempty"`
	CreatedAt     time.Time `json:"createdAt,omitempty"`
}

// CourseFields is the admin-editable field set of a course.
type CourseFields struct {
	Title       string  `json:"title" validate:"required,notblank,max=200"`
	Description string  `json:"description" validate:"required,notblank"`
	Category    string  `json:"category,omitempty" validate:"max=60"`
	Price       float64 `json:"price" validate:"gte=0"`
	Thumbnail   string  `json:"thumbnail,omitempty" validate:"omitempty,url"`
}

// EnrolledBy reports whether userID is enrolled in the course.
func (c Course) EnrolledBy(userID string) bool {
	for _, u := range c.EnrolledUsers {
		if SameID(u, userID) {
			return true
		}
	}
	return false
}

// Platform roles. RoleAdmin is shared with community membership.
const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
)

type User struct {
	ID              string    `json:"_id"`
	Fullname        string    `json:"fullname"`
	Email           string    `json:"email"`
	Role            string    `json:"role"`
	Points          int       `json:"points"`
	EnrolledCourses []Ref     `json:"enrolledCourses,omitempty"`
	CreatedAt       time.Time `json:"createdAt,omitempty"`
}

type Lesson struct {
	ID       string `json:"_id"`
	CourseID string `json:"courseId"`
	Title    string `json:"title"`
	Content  string `json:"content,omitempty"`
	VideoURL string `json:"videoUrl,omitempty"`
	Order    int    `json:"order"`
}

type Option struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

type Question struct {
	ID       string   `json:"_id"`
	CourseID string   `json:"courseId"`
	Text     string   `json:"question"`
	Points   int      `json:"points"`
	Options  []Option `json:"options"`
}

type Message struct {
	ID         string    `json:"_id"`
	SenderID   Ref       `json:"senderId"`
	ReceiverID Ref       `json:"receiverId"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}

type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	UserID   string `json:"userId"`
	Fullname string `json:"fullname"`
	Points   int    `json:"points"`
}
