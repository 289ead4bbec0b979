package models

import "time"

const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

type Member struct {
	UserID Ref    `json:"userId"`
	Role   string `json:"role"`
}

type Community struct {
	ID          string   `json:"_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	CoverImage  string   `json:"coverImage,omitempty"`
	Members     []Member `json:"members"`
	CreatedBy   Ref      `json:"createdBy,omitempty"`
}

// CommunityFields is the editable field set sent on update.
type CommunityFields struct {
	Name        string `json:"name" validate:"required,notblank,max=100"`
	Description string `json:"description" validate:"max=2000"`
	CoverImage  string `json:"coverImage" validate:"omitempty,url"`
}

type Reply struct {
	AuthorID  Ref        `json:"authorId"`
	Content   string     `json:"content"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

type Comment struct {
	ID        string     `json:"_id"`
	AuthorID  Ref        `json:"authorId"`
	Content   string     `json:"content"`
	Replies   []Reply    `json:"replies"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

type Post struct {
	ID          string    `json:"_id"`
	AuthorID    Ref       `json:"authorId"`
	CommunityID string    `json:"communityId"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"createdAt"`
	Likes       []Ref     `json:"likes"`
	Comments    []Comment `json:"comments"`
	IsPinned    bool      `json:"isPinned"`
}

// LikedBy reports whether userID is in the post's like set.
func (p Post) LikedBy(userID string) bool {
	for _, l := range p.Likes {
		if SameID(l, userID) {
			return true
		}
	}
	return false
}

// Comment returns the comment with id, if present.
func (p Post) Comment(id string) (Comment, bool) {
	for _, c := range p.Comments {
		if SameID(c.ID, id) {
			return c, true
		}
	}
	return Comment{}, false
}
