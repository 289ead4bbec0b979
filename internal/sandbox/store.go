package sandbox

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"skillhub/internal/apperrors"
	"skillhub/internal/models"
)

func newID() string {
	return primitive.NewObjectID().Hex()
}

type account struct {
	user         models.User
	passwordHash []byte
}

// Store keeps every document in memory. All methods are safe for
// concurrent use and return copies.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	users         []*account
	courses       []*models.Course
	lessons       []models.Lesson
	questions     []models.Question
	communities   []*models.Community
	posts         []*models.Post
	reports       []*models.Report
	notifications []*models.Notification
	messages      []*models.Message
}

// NewStore builds a store from seed. Passwords are hashed with cost.
func NewStore(seed Seed, cost int, now func() time.Time) (*Store, error) {
	if now == nil {
		now = time.Now
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	s := &Store{now: now}
	byEmail := map[string]string{}
	for _, u := range seed.Users {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), cost)
		if err != nil {
			return nil, fmt.Errorf("hash password for %s: %w", u.Email, err)
		}
		role := u.Role
		if role == "" {
			role = models.RoleStudent
		}
		acc := &account{
			user: models.User{
				ID:        newID(),
				Fullname:  u.Fullname,
				Email:     strings.ToLower(u.Email),
				Role:      role,
				Points:    u.Points,
				CreatedAt: now().UTC(),
			},
			passwordHash: hash,
		}
		byEmail[acc.user.Email] = acc.user.ID
		s.users = append(s.users, acc)
	}
	lookup := func(email string) (string, error) {
		id, ok := byEmail[strings.ToLower(email)]
		if !ok {
			return "", fmt.Errorf("seed references unknown user %q", email)
		}
		return id, nil
	}

	for _, sc := range seed.Courses {
		course := &models.Course{
			ID:          newID(),
			Title:       sc.Title,
			Description: sc.Description,
			Category:    sc.Category,
			Price:       sc.Price,
			CreatedAt:   now().UTC(),
		}
		if sc.Instructor != "" {
			id, err := lookup(sc.Instructor)
			if err != nil {
				return nil, err
			}
			course.Instructor = models.NewRef(id)
		}
		s.courses = append(s.courses, course)
		for i, l := range sc.Lessons {
			s.lessons = append(s.lessons, models.Lesson{
				ID: newID(), CourseID: course.ID, Title: l.Title, Content: l.Content, VideoURL: l.VideoURL, Order: i + 1,
			})
		}
		for _, q := range sc.Questions {
			opts := make([]models.Option, 0, len(q.Options))
			for _, o := range q.Options {
				opts = append(opts, models.Option{Text: o.Text, IsCorrect: o.IsCorrect})
			}
			s.questions = append(s.questions, models.Question{
				ID: newID(), CourseID: course.ID, Text: q.Question, Points: q.Points, Options: opts,
			})
		}
	}

	for _, sc := range seed.Communities {
		adminID, err := lookup(sc.Admin)
		if err != nil {
			return nil, err
		}
		c := &models.Community{
			ID:          newID(),
			Name:        sc.Name,
			Description: sc.Description,
			CreatedBy:   models.NewRef(adminID),
			Members:     []models.Member{{UserID: models.NewRef(adminID), Role: models.RoleAdmin}},
		}
		for _, email := range sc.Members {
			id, err := lookup(email)
			if err != nil {
				return nil, err
			}
			c.Members = append(c.Members, models.Member{UserID: models.NewRef(id), Role: models.RoleMember})
		}
		s.communities = append(s.communities, c)
		for _, sp := range sc.Posts {
			author, err := lookup(sp.Author)
			if err != nil {
				return nil, err
			}
			s.posts = append(s.posts, &models.Post{
				ID: newID(), AuthorID: models.NewRef(author), CommunityID: c.ID, Content: sp.Content,
				CreatedAt: now().UTC(), Likes: []models.Ref{}, Comments: []models.Comment{},
			})
		}
	}
	return s, nil
}

func notFound(kind, id string) error {
	return apperrors.NewNotFoundError(fmt.Sprintf("%s %s not found", kind, id))
}

// Users

func (s *Store) account(id string) *account {
	for _, a := range s.users {
		if a.user.ID == id {
			return a
		}
	}
	return nil
}

// Authenticate checks an email/password pair.
func (s *Store) Authenticate(email, password string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, a := range s.users {
		if a.user.Email != email {
			continue
		}
		if bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)) != nil {
			break
		}
		return a.user, nil
	}
	return models.User{}, &apperrors.CustomError{Err: apperrors.ErrUnauthorized, Message: "invalid email or password"}
}

func (s *Store) Users() []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, 0, len(s.users))
	for _, a := range s.users {
		out = append(out, a.user)
	}
	return out
}

func (s *Store) User(id string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a := s.account(id); a != nil {
		return a.user, nil
	}
	return models.User{}, notFound("user", id)
}

func (s *Store) UpdateUser(id, fullname, role string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.account(id)
	if a == nil {
		return models.User{}, notFound("user", id)
	}
	if fullname != "" {
		a.user.Fullname = fullname
	}
	if role != "" {
		a.user.Role = role
	}
	return a.user, nil
}

func (s *Store) DeleteUser(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range s.users {
		if a.user.ID == id {
			s.users = append(s.users[:i], s.users[i+1:]...)
			return nil
		}
	}
	return notFound("user", id)
}

// populate turns a bare user reference into a populated one. Unknown ids
// stay bare.
func (s *Store) populate(ref models.Ref) models.Ref {
	if a := s.account(ref.ID); a != nil {
		return ref.Populate(a.user.Fullname, a.user.Email, "")
	}
	return ref
}

// Courses

func (s *Store) course(id string) *models.Course {
	for _, c := range s.courses {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (s *Store) Courses() []models.Course {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Course, 0, len(s.courses))
	for _, c := range s.courses {
		cp := *c
		cp.Instructor = s.populate(c.Instructor)
		out = append(out, cp)
	}
	return out
}

func (s *Store) Course(id string) (models.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.course(id)
	if c == nil {
		return models.Course{}, notFound("course", id)
	}
	out := *c
	out.Instructor = s.populate(c.Instructor)
	return out, nil
}

func (s *Store) CreateCourse(f models.CourseFields) models.Course {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &models.Course{
		ID:          newID(),
		Title:       f.Title,
		Description: f.Description,
		Category:    f.Category,
		Price:       f.Price,
		Thumbnail:   f.Thumbnail,
		CreatedAt:   s.now().UTC(),
	}
	s.courses = append(s.courses, c)
	return *c
}

func (s *Store) UpdateCourse(id string, f models.CourseFields) (models.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.course(id)
	if c == nil {
		return models.Course{}, notFound("course", id)
	}
	c.Title, c.Description, c.Category, c.Price, c.Thumbnail = f.Title, f.Description, f.Category, f.Price, f.Thumbnail
	return *c, nil
}

func (s *Store) DeleteCourse(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.courses {
		if c.ID == id {
			s.courses = append(s.courses[:i], s.courses[i+1:]...)
			return nil
		}
	}
	return notFound("course", id)
}

// Enroll is idempotent.
func (s *Store) Enroll(courseID, userID string) (models.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.course(courseID)
	if c == nil {
		return models.Course{}, notFound("course", courseID)
	}
	a := s.account(userID)
	if a == nil {
		return models.Course{}, notFound("user", userID)
	}
	if !c.EnrolledBy(userID) {
		c.EnrolledUsers = append(c.EnrolledUsers, models.NewRef(userID))
		a.user.EnrolledCourses = append(a.user.EnrolledCourses, models.NewRef(courseID))
	}
	return *c, nil
}

func (s *Store) Lessons(courseID string) []models.Lesson {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Lesson{}
	for _, l := range s.lessons {
		if l.CourseID == courseID {
			out = append(out, l)
		}
	}
	return out
}

func (s *Store) Questions(courseID string) []models.Question {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Question{}
	for _, q := range s.questions {
		if q.CourseID == courseID {
			out = append(out, q)
		}
	}
	return out
}

// Communities

func (s *Store) community(id string) *models.Community {
	for _, c := range s.communities {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// view copies c with member references populated.
func (s *Store) view(c *models.Community) models.Community {
	out := *c
	out.Members = make([]models.Member, 0, len(c.Members))
	for _, m := range c.Members {
		out.Members = append(out.Members, models.Member{UserID: s.populate(m.UserID), Role: m.Role})
	}
	return out
}

func (s *Store) Communities() []models.Community {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Community, 0, len(s.communities))
	for _, c := range s.communities {
		out = append(out, s.view(c))
	}
	return out
}

func (s *Store) Community(id string) (models.Community, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.community(id)
	if c == nil {
		return models.Community{}, notFound("community", id)
	}
	return s.view(c), nil
}

func memberIndex(c *models.Community, userID string) int {
	for i, m := range c.Members {
		if models.SameID(m.UserID, userID) {
			return i
		}
	}
	return -1
}

// CommunityRole returns the member role of userID, or "" for non-members.
func (s *Store) CommunityRole(id, userID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.community(id)
	if c == nil {
		return "", notFound("community", id)
	}
	if i := memberIndex(c, userID); i >= 0 {
		return c.Members[i].Role, nil
	}
	return "", nil
}

// Join is idempotent.
func (s *Store) Join(id, userID string) (models.Community, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.community(id)
	if c == nil {
		return models.Community{}, notFound("community", id)
	}
	if s.account(userID) == nil {
		return models.Community{}, notFound("user", userID)
	}
	if memberIndex(c, userID) < 0 {
		c.Members = append(c.Members, models.Member{UserID: models.NewRef(userID), Role: models.RoleMember})
	}
	return s.view(c), nil
}

// Leave removes userID. The last admin cannot leave.
func (s *Store) Leave(id, userID string) (models.Community, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.community(id)
	if c == nil {
		return models.Community{}, notFound("community", id)
	}
	i := memberIndex(c, userID)
	if i < 0 {
		return models.Community{}, notFound("member", userID)
	}
	if c.Members[i].Role == models.RoleAdmin {
		admins := 0
		for _, m := range c.Members {
			if m.Role == models.RoleAdmin {
				admins++
			}
		}
		if admins == 1 {
			return models.Community{}, &apperrors.CustomError{Err: apperrors.ErrConflict, Message: "the last admin cannot leave the community"}
		}
	}
	c.Members = append(c.Members[:i], c.Members[i+1:]...)
	return s.view(c), nil
}

func (s *Store) Promote(id, userID string) (models.Community, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.community(id)
	if c == nil {
		return models.Community{}, notFound("community", id)
	}
	i := memberIndex(c, userID)
	if i < 0 {
		return models.Community{}, notFound("member", userID)
	}
	c.Members[i].Role = models.RoleAdmin
	return s.view(c), nil
}

func (s *Store) UpdateCommunity(id string, f models.CommunityFields) (models.Community, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.community(id)
	if c == nil {
		return models.Community{}, notFound("community", id)
	}
	c.Name, c.Description, c.CoverImage = f.Name, f.Description, f.CoverImage
	return s.view(c), nil
}

// Posts

func (s *Store) post(id string) *models.Post {
	for _, p := range s.posts {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *Store) postView(p *models.Post) models.Post {
	out := *p
	out.AuthorID = s.populate(p.AuthorID)
	out.Likes = append([]models.Ref{}, p.Likes...)
	out.Comments = make([]models.Comment, 0, len(p.Comments))
	for _, c := range p.Comments {
		cc := c
		cc.AuthorID = s.populate(c.AuthorID)
		cc.Replies = make([]models.Reply, 0, len(c.Replies))
		for _, r := range c.Replies {
			r.AuthorID = s.populate(r.AuthorID)
			cc.Replies = append(cc.Replies, r)
		}
		out.Comments = append(out.Comments, cc)
	}
	return out
}

// Posts lists a community's posts. sort "new" orders newest first, any
// other value keeps insertion order. limit <= 0 means no limit.
func (s *Store) Posts(communityID, order string, limit int) ([]models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.community(communityID) == nil {
		return nil, notFound("community", communityID)
	}
	out := []models.Post{}
	for _, p := range s.posts {
		if p.CommunityID == communityID {
			out = append(out, s.postView(p))
		}
	}
	if order == "new" {
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) CreatePost(authorID, communityID, content string) (models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.community(communityID) == nil {
		return models.Post{}, notFound("community", communityID)
	}
	p := &models.Post{
		ID:          newID(),
		AuthorID:    models.NewRef(authorID),
		CommunityID: communityID,
		Content:     content,
		CreatedAt:   s.now().UTC(),
		Likes:       []models.Ref{},
		Comments:    []models.Comment{},
	}
	s.posts = append(s.posts, p)
	return s.postView(p), nil
}

func (s *Store) SetPinned(communityID, postID string, pinned bool) (models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.post(postID)
	if p == nil || p.CommunityID != communityID {
		return models.Post{}, notFound("post", postID)
	}
	p.IsPinned = pinned
	return s.postView(p), nil
}

// ToggleLike flips userID's like and reports whether the post is now liked.
func (s *Store) ToggleLike(postID, userID string) (models.Post, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.post(postID)
	if p == nil {
		return models.Post{}, false, notFound("post", postID)
	}
	for i, l := range p.Likes {
		if models.SameID(l, userID) {
			p.Likes = append(p.Likes[:i], p.Likes[i+1:]...)
			return s.postView(p), false, nil
		}
	}
	p.Likes = append(p.Likes, models.NewRef(userID))
	s.notifyLocked(p.AuthorID.ID, userID, "%s liked your post")
	return s.postView(p), true, nil
}

func (s *Store) AddComment(postID, userID, content string) (models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.post(postID)
	if p == nil {
		return models.Post{}, notFound("post", postID)
	}
	now := s.now().UTC()
	p.Comments = append(p.Comments, models.Comment{
		ID:        newID(),
		AuthorID:  models.NewRef(userID),
		Content:   content,
		Replies:   []models.Reply{},
		CreatedAt: &now,
	})
	s.notifyLocked(p.AuthorID.ID, userID, "%s commented on your post")
	return s.postView(p), nil
}

func (s *Store) AddReply(postID, commentID, userID, content string) (models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.post(postID)
	if p == nil {
		return models.Post{}, notFound("post", postID)
	}
	for i := range p.Comments {
		c := &p.Comments[i]
		if c.ID != commentID {
			continue
		}
		now := s.now().UTC()
		c.Replies = append(c.Replies, models.Reply{AuthorID: models.NewRef(userID), Content: content, CreatedAt: &now})
		s.notifyLocked(c.AuthorID.ID, userID, "%s replied to your comment")
		return s.postView(p), nil
	}
	return models.Post{}, notFound("comment", commentID)
}

// notifyLocked records a notification for recipient about actor. Nothing
// is recorded for self-actions. format receives the actor's name.
func (s *Store) notifyLocked(recipientID, actorID, format string) {
	if recipientID == "" || recipientID == actorID {
		return
	}
	name := "Someone"
	if a := s.account(actorID); a != nil {
		name = a.user.Fullname
	}
	s.notifications = append(s.notifications, &models.Notification{
		ID:        newID(),
		UserID:    recipientID,
		Message:   fmt.Sprintf(format, name),
		CreatedAt: s.now().UTC(),
	})
}

// Notifications returns userID's notifications, newest first.
func (s *Store) Notifications(userID string) []models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Notification{}
	for i := len(s.notifications) - 1; i >= 0; i-- {
		if n := s.notifications[i]; n.UserID == userID {
			out = append(out, *n)
		}
	}
	return out
}

// MarkRead marks a notification read. Only its recipient may do so.
func (s *Store) MarkRead(id, userID string) (models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notifications {
		if n.ID != id {
			continue
		}
		if n.UserID != userID {
			return models.Notification{}, apperrors.NewForbiddenError("not your notification")
		}
		n.Read = true
		return *n, nil
	}
	return models.Notification{}, notFound("notification", id)
}

// Reports

func (s *Store) CreateReport(reporterID, typ, description, targetType, targetID string) models.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	r := &models.Report{
		ID:          newID(),
		ReporterID:  models.NewRef(reporterID),
		Type:        typ,
		Description: description,
		TargetType:  targetType,
		TargetID:    models.NewRef(targetID),
		Status:      models.ReportPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.reports = append(s.reports, r)
	return *r
}

// reportView populates the reporter and, for users and courses, the target.
func (s *Store) reportView(r *models.Report) models.Report {
	out := *r
	out.ReporterID = s.populate(r.ReporterID)
	switch r.TargetType {
	case models.TargetUser:
		out.TargetID = s.populate(r.TargetID)
	case models.TargetCourse:
		if c := s.course(r.TargetID.ID); c != nil {
			out.TargetID = r.TargetID.Populate("", "", c.Title)
		}
	}
	return out
}

func (s *Store) Reports() []models.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Report, 0, len(s.reports))
	for _, r := range s.reports {
		out = append(out, s.reportView(r))
	}
	return out
}

func (s *Store) Report(id string) (models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.reports {
		if r.ID == id {
			return s.reportView(r), nil
		}
	}
	return models.Report{}, notFound("report", id)
}

func (s *Store) SetReportStatus(id, status string) (models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reports {
		if r.ID == id {
			r.Status = status
			r.UpdatedAt = s.now().UTC()
			return s.reportView(r), nil
		}
	}
	return models.Report{}, notFound("report", id)
}

func (s *Store) DeleteReport(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.reports {
		if r.ID == id {
			s.reports = append(s.reports[:i], s.reports[i+1:]...)
			return nil
		}
	}
	return notFound("report", id)
}

// Messages

// Messages returns every message sent or received by userID, oldest first.
func (s *Store) Messages(userID string) []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Message{}
	for _, m := range s.messages {
		if m.SenderID.ID == userID || m.ReceiverID.ID == userID {
			out = append(out, *m)
		}
	}
	return out
}

func (s *Store) SendMessage(senderID, receiverID, content string) (models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.account(receiverID) == nil {
		return models.Message{}, notFound("user", receiverID)
	}
	m := &models.Message{
		ID:         newID(),
		SenderID:   models.NewRef(senderID),
		ReceiverID: models.NewRef(receiverID),
		Content:    content,
		CreatedAt:  s.now().UTC(),
	}
	s.messages = append(s.messages, m)
	return *m, nil
}
