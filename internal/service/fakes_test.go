package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/sakif/travel-journal/internal/apperror"
	"github.com/sakif/travel-journal/internal/auth"
	"github.com/sakif/travel-journal/internal/model"
	"github.com/sakif/travel-journal/internal/repository"
	"github.com/sakif/travel-journal/internal/storage"
)

// =========================================================================
// IN-MEMORY FAKES
// =========================================================================
//
// One fakeStore backs all three repository interfaces, the same way one
// *sqlite.DB does in production. Rows are stored by value and copies are
// handed out, so a test that mutates a returned struct can't reach into the
// "database".

type fakeStore struct {
	mu      sync.Mutex
	seq     int
	clock   time.Time
	users   map[string]model.User
	travels []model.Travel // insertion order; listings reverse it
	photos  map[string]model.Photo

	// set to a non-nil error to simulate a database failure
	createPhotoErr error
}

var (
	_ repository.UserRepository   = (*fakeStore)(nil)
	_ repository.TravelRepository = (*fakeStore)(nil)
	_ repository.PhotoRepository  = (*fakeStore)(nil)
)

func newFakeStore() *fakeStore {
	return &fakeStore{
		clock:  time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		users:  make(map[string]model.User),
		photos: make(map[string]model.Photo),
	}
}

func (f *fakeStore) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

// tick advances the fake clock so every row gets a distinct timestamp.
func (f *fakeStore) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

// --- users ---

func (f *fakeStore) CreateUser(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.Login == user.Login {
			return &apperror.AppError{Err: apperror.ErrConflict, Message: "conflict", Field: "login"}
		}
		if u.Email == user.Email {
			return &apperror.AppError{Err: apperror.ErrConflict, Message: "conflict", Field: "email"}
		}
	}
	user.ID = f.nextID("user")
	user.CreatedAt = f.tick()
	user.UpdatedAt = user.CreatedAt
	f.users[user.ID] = *user
	return nil
}

func (f *fakeStore) findUser(match func(model.User) bool, key string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, apperror.NotFound("user", key)
}

func (f *fakeStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	return f.findUser(func(u model.User) bool { return u.ID == id }, id)
}

func (f *fakeStore) GetUserByLogin(_ context.Context, login string) (*model.User, error) {
	return f.findUser(func(u model.User) bool { return u.Login == login }, login)
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	return f.findUser(func(u model.User) bool { return u.Email == email }, email)
}

func (f *fakeStore) GetUserByGitHubID(_ context.Context, id int64) (*model.User, error) {
	return f.findUser(func(u model.User) bool { return u.GitHubID != nil && *u.GitHubID == id }, fmt.Sprint(id))
}

func (f *fakeStore) UpdateProfile(_ context.Context, id string, patch model.ProfilePatch) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Bio != nil {
		u.Bio = *patch.Bio
	}
	if patch.Country != nil {
		u.Country = *patch.Country
	}
	if patch.AvatarURL != nil {
		u.AvatarURL = *patch.AvatarURL
	}
	u.UpdatedAt = f.tick()
	f.users[id] = u
	return &u, nil
}

// --- travels ---

func (f *fakeStore) CreateTravel(_ context.Context, travel *model.Travel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[travel.UserID]; !ok {
		return apperror.NotFound("user", travel.UserID)
	}
	travel.ID = f.nextID("travel")
	travel.CreatedAt = f.tick()
	travel.UpdatedAt = travel.CreatedAt
	travel.RoutePoints = f.storeRoute(travel.ID, travel.RoutePoints)

	stored := *travel
	stored.Photos = nil
	f.travels = append(f.travels, stored)
	return nil
}

func (f *fakeStore) storeRoute(travelID string, points []model.RoutePoint) []model.RoutePoint {
	out := make([]model.RoutePoint, len(points))
	for i, rp := range points {
		rp.ID = f.nextID("rp")
		rp.TravelID = travelID
		rp.CreatedAt = f.clock
		rp.UpdatedAt = f.clock
		out[i] = rp
	}
	return out
}

func (f *fakeStore) indexOf(id string) int {
	for i := range f.travels {
		if f.travels[i].ID == id {
			return i
		}
	}
	return -1
}

// load returns a fully populated copy of the stored travel. Caller holds mu.
func (f *fakeStore) load(t model.Travel) model.Travel {
	if u, ok := f.users[t.UserID]; ok {
		t.Author = model.AuthorSummary{ID: u.ID, Login: u.Login, Name: u.Name, AvatarURL: u.AvatarURL}
	}
	route := append([]model.RoutePoint(nil), t.RoutePoints...)
	sort.SliceStable(route, func(i, j int) bool { return route[i].Order < route[j].Order })
	t.RoutePoints = route

	t.Photos = []model.Photo{}
	for _, p := range f.photos {
		if p.TravelID == t.ID {
			t.Photos = append(t.Photos, p)
		}
	}
	sort.Slice(t.Photos, func(i, j int) bool { return t.Photos[i].UploadedAt.Before(t.Photos[j].UploadedAt) })
	return t
}

func (f *fakeStore) GetTravel(_ context.Context, id string) (*model.Travel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.indexOf(id)
	if i < 0 {
		return nil, apperror.NotFound("travel", id)
	}
	t := f.load(f.travels[i])
	return &t, nil
}

// newest walks travels newest first.
func (f *fakeStore) newest(keep func(model.Travel) bool) []model.Travel {
	out := []model.Travel{}
	for i := len(f.travels) - 1; i >= 0; i-- {
		if keep(f.travels[i]) {
			out = append(out, f.load(f.travels[i]))
		}
	}
	return out
}

func (f *fakeStore) ListTravelsByUser(_ context.Context, userID string, publicOnly bool) ([]model.Travel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.newest(func(t model.Travel) bool {
		return t.UserID == userID && (!publicOnly || t.IsPublic)
	}), nil
}

func (f *fakeStore) UpdateTravel(_ context.Context, travel *model.Travel, replaceRoute bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.indexOf(travel.ID)
	if i < 0 {
		return apperror.NotFound("travel", travel.ID)
	}
	stored := *travel
	stored.Photos = nil
	stored.CreatedAt = f.travels[i].CreatedAt
	stored.UpdatedAt = f.tick()
	if replaceRoute {
		stored.RoutePoints = f.storeRoute(travel.ID, travel.RoutePoints)
	} else {
		stored.RoutePoints = f.travels[i].RoutePoints
	}
	f.travels[i] = stored
	return nil
}

func (f *fakeStore) DeleteTravel(_ context.Context, id string) ([]model.Photo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.indexOf(id)
	if i < 0 {
		return nil, apperror.NotFound("travel", id)
	}
	var removed []model.Photo
	for pid, p := range f.photos {
		if p.TravelID == id {
			removed = append(removed, p)
			delete(f.photos, pid)
		}
	}
	f.travels = append(f.travels[:i], f.travels[i+1:]...)
	return removed, nil
}

func (f *fakeStore) ListFeed(_ context.Context, filter repository.FeedFilter, opts repository.ListOptions) ([]model.Travel, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.newest(func(t model.Travel) bool {
		if !t.IsPublic {
			return false
		}
		if filter.Country != "" && t.Country != filter.Country {
			return false
		}
		if filter.Type != "" && t.Type != filter.Type {
			return false
		}
		if filter.City != "" {
			for _, rp := range t.RoutePoints {
				if rp.City == filter.City {
					return true
				}
			}
			return false
		}
		return true
	})

	total := len(all)
	if opts.Offset >= total {
		return []model.Travel{}, total, nil
	}
	all = all[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(all) {
		all = all[:opts.Limit]
	}
	return all, total, nil
}

func (f *fakeStore) ListCountries(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, t := range f.travels {
		if t.IsPublic && !seen[t.Country] {
			seen[t.Country] = true
			out = append(out, t.Country)
		}
	}
	sort.Strings(out)
	return out, nil
}

// --- photos ---

func (f *fakeStore) CreatePhoto(_ context.Context, photo *model.Photo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createPhotoErr != nil {
		return f.createPhotoErr
	}
	if f.indexOf(photo.TravelID) < 0 {
		return apperror.Conflict("photo", photo.TravelID)
	}
	photo.ID = f.nextID("photo")
	photo.UploadedAt = f.tick()
	f.photos[photo.ID] = *photo
	return nil
}

func (f *fakeStore) GetPhoto(_ context.Context, id string) (*model.Photo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.photos[id]
	if !ok {
		return nil, apperror.NotFound("photo", id)
	}
	return &p, nil
}

func (f *fakeStore) DeletePhoto(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.photos[id]; !ok {
		return apperror.NotFound("photo", id)
	}
	delete(f.photos, id)
	return nil
}

// fakeFiles records saved and removed photo files.
type fakeFiles struct {
	mu      sync.Mutex
	seq     int
	saved   []string
	removed []string
	saveErr error
}

func (f *fakeFiles) Save(_ context.Context, r io.Reader) (storage.StoredFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return storage.StoredFile{}, f.saveErr
	}
	n, err := io.Copy(io.Discard, r)
	if err != nil {
		return storage.StoredFile{}, err
	}
	f.seq++
	name := fmt.Sprintf("file-%d.jpg", f.seq)
	f.saved = append(f.saved, storage.URLPrefix+name)
	return storage.StoredFile{
		Name:        name,
		URL:         storage.URLPrefix + name,
		ContentType: "image/jpeg",
		Size:        n,
	}, nil
}

func (f *fakeFiles) Remove(url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, url)
	return nil
}

// =========================================================================
// TEST HELPERS
// =========================================================================

const testSecret = "test-secret-key-that-is-long-enough-for-hs256"

type testEnv struct {
	store    *fakeStore
	files    *fakeFiles
	tokens   *auth.TokenService
	auth     *AuthService
	travels  *TravelService
	feed     *FeedService
	profiles *ProfileService
	photos   *PhotoService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	tokens, err := auth.NewTokenService(testSecret)
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := newFakeStore()
	files := &fakeFiles{}

	return &testEnv{
		store:    store,
		files:    files,
		tokens:   tokens,
		auth:     NewAuthService(store, tokens, auth.NewPasswordServiceForTest(4), logger),
		travels:  NewTravelService(store, store, files, logger),
		feed:     NewFeedService(store, logger),
		profiles: NewProfileService(store, store, logger),
		photos:   NewPhotoService(store, store, files, logger),
	}
}

// register creates an account and returns its id.
func (e *testEnv) register(t *testing.T, login string) string {
	t.Helper()
	res, err := e.auth.Register(context.Background(), RegisterInput{
		Login:    login,
		Email:    login + "@example.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("Register(%q) error = %v", login, err)
	}
	return res.User.ID
}

// newTravel creates a travel for owner with the given visibility and cities.
func (e *testEnv) newTravel(t *testing.T, owner, title, country string, public bool, cities ...string) *model.Travel {
	t.Helper()
	in := TravelInput{Title: title, Country: country, IsPublic: &public}
	for i, c := range cities {
		order := i + 1
		in.RoutePoints = append(in.RoutePoints, RoutePointInput{City: c, Order: &order})
	}
	travel, err := e.travels.Create(context.Background(), owner, in)
	if err != nil {
		t.Fatalf("Create(%q) error = %v", title, err)
	}
	return travel
}

func date(y int, m time.Month, d int) *model.Date {
	v := model.NewDate(y, m, d)
	return &v
}

func strPtr(s string) *string { return &s }

func jpeg() io.Reader { return bytes.NewReader([]byte("\xff\xd8\xff\xe0fake-jpeg")) }

var errDatabaseDown = errors.New("database is down")
