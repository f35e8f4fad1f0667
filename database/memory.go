package database

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"glammate/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Memory is a process-local store with the same semantics as the Mongo
// repositories, used for tests and for STORE=memory development runs.
type Memory struct {
	mu          sync.Mutex
	users       map[primitive.ObjectID]*models.User
	posts       map[primitive.ObjectID]*models.Post
	collections map[primitive.ObjectID]*models.Collection
	sessions    map[string]*models.Session
}

func NewMemory() *Memory {
	return &Memory{
		users:       map[primitive.ObjectID]*models.User{},
		posts:       map[primitive.ObjectID]*models.Post{},
		collections: map[primitive.ObjectID]*models.Collection{},
		sessions:    map[string]*models.Session{},
	}
}

func (m *Memory) Store() *Store {
	return &Store{
		Users:       memUsers{m},
		Posts:       memPosts{m},
		Collections: memCollections{m},
		Sessions:    memSessions{m},
	}
}

func cloneIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	out := make([]primitive.ObjectID, len(ids))
	copy(out, ids)
	return out
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Followers = cloneIDs(u.Followers)
	c.Following = cloneIDs(u.Following)
	c.Collections = cloneIDs(u.Collections)
	c.Saves = cloneIDs(u.Saves)
	if u.OTPExpiry != nil {
		t := *u.OTPExpiry
		c.OTPExpiry = &t
	}
	return &c
}

func clonePost(p *models.Post) *models.Post {
	c := *p
	c.Images = append([]string{}, p.Images...)
	c.Tags = append([]string{}, p.Tags...)
	c.Likes = cloneIDs(p.Likes)
	c.Saves = cloneIDs(p.Saves)
	if p.UploadedBy != nil {
		id := *p.UploadedBy
		c.UploadedBy = &id
	}
	return &c
}

func cloneCollection(c *models.Collection) *models.Collection {
	out := *c
	out.Posts = cloneIDs(c.Posts)
	return &out
}

func cloneSession(s *models.Session) *models.Session {
	c := *s
	if s.Message != nil {
		f := *s.Message
		c.Message = &f
	}
	return &c
}

// toggleIn flips id in *ids and returns the resulting state.
func toggleIn(ids *[]primitive.ObjectID, id primitive.ObjectID) ToggleResult {
	set := models.NewIDSet(*ids)
	member := set.Toggle(id)
	*ids = set.Slice()
	return ToggleResult{Count: set.Len(), Member: member}
}

func setMembership(ids *[]primitive.ObjectID, id primitive.ObjectID, member bool) {
	set := models.NewIDSet(*ids)
	if member {
		set.Add(id)
	} else {
		set.Remove(id)
	}
	*ids = set.Slice()
}

type memUsers struct{ m *Memory }

func (r memUsers) Create(_ context.Context, u *models.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	for _, existing := range r.m.users {
		if existing.ID == u.ID || existing.Email == u.Email ||
			(u.Username != "" && existing.Username == u.Username) ||
			(u.GoogleID != "" && existing.GoogleID == u.GoogleID) {
			return ErrDuplicate
		}
	}
	r.m.users[u.ID] = cloneUser(u)
	return nil
}

func (r memUsers) findBy(match func(*models.User) bool) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, u := range r.m.users {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (r memUsers) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findBy(func(u *models.User) bool { return u.ID == id })
}

func (r memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return r.findBy(func(u *models.User) bool { return u.Email == email })
}

func (r memUsers) FindByUsername(_ context.Context, username string) (*models.User, error) {
	return r.findBy(func(u *models.User) bool { return u.Username != "" && u.Username == username })
}

func (r memUsers) FindByGoogleID(_ context.Context, googleID string) (*models.User, error) {
	return r.findBy(func(u *models.User) bool { return u.GoogleID != "" && u.GoogleID == googleID })
}

func (r memUsers) ConfirmOTP(_ context.Context, id primitive.ObjectID, code string) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	u, ok := r.m.users[id]
	if !ok || code == "" || u.OTP != code {
		return nil, ErrNotFound
	}
	u.IsVerified = true
	u.OTP = ""
	u.OTPExpiry = nil
	return cloneUser(u), nil
}

func (r memUsers) SetUsername(_ context.Context, id primitive.ObjectID, username string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	u, ok := r.m.users[id]
	if !ok {
		return ErrNotFound
	}
	for _, other := range r.m.users {
		if other.ID != id && other.Username == username {
			return ErrDuplicate
		}
	}
	u.Username = username
	return nil
}

func (r memUsers) UpdateProfile(_ context.Context, id primitive.ObjectID, upd ProfileUpdate) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	u, ok := r.m.users[id]
	if !ok {
		return ErrNotFound
	}
	if upd.Bio != nil {
		u.Bio = *upd.Bio
	}
	if upd.AboutMe != nil {
		u.AboutMe = *upd.AboutMe
	}
	if upd.Avatar != nil {
		u.Avatar = *upd.Avatar
	}
	if upd.Banner != nil {
		u.Banner = *upd.Banner
	}
	return nil
}

func (r memUsers) Search(_ context.Context, q string, limit int64) ([]models.Profile, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	needle := strings.ToLower(q)
	out := []models.Profile{}
	for _, u := range r.m.users {
		if strings.Contains(strings.ToLower(u.Username), needle) || strings.Contains(strings.ToLower(u.Name), needle) {
			out = append(out, u.Profile())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memUsers) ToggleFollow(_ context.Context, actor, target primitive.ObjectID) (ToggleResult, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	t, ok := r.m.users[target]
	if !ok {
		return ToggleResult{}, ErrNotFound
	}
	res := toggleIn(&t.Followers, actor)
	if a, ok := r.m.users[actor]; ok {
		setMembership(&a.Following, target, res.Member)
	}
	return res, nil
}

func (r memUsers) AddCollection(_ context.Context, userID, collectionID primitive.ObjectID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if u, ok := r.m.users[userID]; ok {
		setMembership(&u.Collections, collectionID, true)
	}
	return nil
}

type memPosts struct{ m *Memory }

func (r memPosts) Create(_ context.Context, p *models.Post) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if _, ok := r.m.posts[p.ID]; ok {
		return ErrDuplicate
	}
	r.m.posts[p.ID] = clonePost(p)
	return nil
}

func (r memPosts) InsertMany(ctx context.Context, posts []*models.Post) error {
	for _, p := range posts {
		if err := r.Create(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (r memPosts) ExistsUnattributed(_ context.Context, title, uploadedByName string) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, p := range r.m.posts {
		if p.UploadedBy == nil && p.Title == title && p.UploadedByName == uploadedByName {
			return true, nil
		}
	}
	return false, nil
}

func (r memPosts) FindByID(_ context.Context, id primitive.ObjectID) (*models.Post, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	p, ok := r.m.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clonePost(p), nil
}

// sorted returns matching posts newest first; ties break on id.
func (r memPosts) sorted(match func(*models.Post) bool) []models.Post {
	out := []models.Post{}
	for _, p := range r.m.posts {
		if match(p) {
			out = append(out, *clonePost(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.Hex() > out[j].ID.Hex()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r memPosts) List(_ context.Context, skip, limit int64) ([]models.Post, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if skip < 0 {
		return nil, fmt.Errorf("negative skip %d", skip)
	}
	all := r.sorted(func(*models.Post) bool { return true })
	if skip >= int64(len(all)) {
		return []models.Post{}, nil
	}
	all = all[skip:]
	if limit > 0 && int64(len(all)) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r memPosts) Count(_ context.Context) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return int64(len(r.m.posts)), nil
}

func (r memPosts) ListByUploader(_ context.Context, userID primitive.ObjectID) ([]models.Post, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	return r.sorted(func(p *models.Post) bool {
		return p.UploadedBy != nil && *p.UploadedBy == userID
	}), nil
}

func (r memPosts) ToggleLike(_ context.Context, postID, userID primitive.ObjectID) (ToggleResult, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	p, ok := r.m.posts[postID]
	if !ok {
		return ToggleResult{}, ErrNotFound
	}
	return toggleIn(&p.Likes, userID), nil
}

func (r memPosts) ToggleSave(_ context.Context, postID, userID primitive.ObjectID) (ToggleResult, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	p, ok := r.m.posts[postID]
	if !ok {
		return ToggleResult{}, ErrNotFound
	}
	res := toggleIn(&p.Saves, userID)
	if u, ok := r.m.users[userID]; ok {
		setMembership(&u.Saves, postID, res.Member)
	}
	return res, nil
}

type memCollections struct{ m *Memory }

func (r memCollections) Create(_ context.Context, c *models.Collection) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if c.Posts == nil {
		c.Posts = []primitive.ObjectID{}
	}
	r.m.collections[c.ID] = cloneCollection(c)
	return nil
}

func (r memCollections) FindByID(_ context.Context, id primitive.ObjectID) (*models.Collection, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	c, ok := r.m.collections[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneCollection(c), nil
}

func (r memCollections) ListByOwner(_ context.Context, owner primitive.ObjectID) ([]models.Collection, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	out := []models.Collection{}
	for _, c := range r.m.collections {
		if c.Owner == owner {
			out = append(out, *cloneCollection(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memCollections) CountByOwner(ctx context.Context, owner primitive.ObjectID) (int64, error) {
	list, err := r.ListByOwner(ctx, owner)
	return int64(len(list)), err
}

func (r memCollections) AddPost(_ context.Context, id, postID primitive.ObjectID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	c, ok := r.m.collections[id]
	if !ok {
		return ErrNotFound
	}
	setMembership(&c.Posts, postID, true)
	return nil
}

type memSessions struct{ m *Memory }

func (r memSessions) Find(_ context.Context, id string) (*models.Session, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	s, ok := r.m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneSession(s), nil
}

func (r memSessions) Save(_ context.Context, s *models.Session) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	r.m.sessions[s.ID] = cloneSession(s)
	return nil
}

func (r memSessions) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	delete(r.m.sessions, id)
	return nil
}
