package client

import (
	"context"
	"errors"
	"sync"
)

// LoadState tracks one screen's remote data.
type LoadState int

const (
	StateIdle LoadState = iota
	StateLoading
	StateReady
	StateFailed
)

func (s LoadState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

const defaultPageSize = 20

// HomeScreen is the browsable catalogue. Changing a filter resets to page 1.
type HomeScreen struct {
	client *Client

	mu     sync.Mutex
	params ListParams
	state  LoadState
	result *AddonList
	err    error
}

func NewHomeScreen(c *Client) *HomeScreen {
	return &HomeScreen{
		client: c,
		params: ListParams{Category: CategoryAll, SortBy: SortNewest, Page: 1, Limit: defaultPageSize},
	}
}

func (s *HomeScreen) Params() ListParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

func (s *HomeScreen) SetSearch(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params.Search = q
	s.params.Page = 1
}

func (s *HomeScreen) SetCategory(category string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if category == "" {
		category = CategoryAll
	}
	s.params.Category = category
	s.params.Page = 1
}

func (s *HomeScreen) SetSort(sortBy string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params.SortBy = sortBy
	s.params.Page = 1
}

func (s *HomeScreen) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params.Page = page
}

// Load fetches the page described by the current filters.
func (s *HomeScreen) Load(ctx context.Context) (*AddonList, error) {
	params := s.begin()
	list, err := s.client.ListAddons(ctx, params)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.result, s.err = list, err
	if err != nil {
		s.state = StateFailed
		return nil, err
	}
	s.state = StateReady
	return list, nil
}

func (s *HomeScreen) begin() ListParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateLoading
	return s.params
}

func (s *HomeScreen) State() (LoadState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.err
}

// DetailScreen shows one addon with an image carousel and download links.
type DetailScreen struct {
	client *Client
	id     string

	mu      sync.Mutex
	state   LoadState
	addon   *Addon
	err     error
	viewErr error
	image   int
}

func NewDetailScreen(c *Client, id string) *DetailScreen {
	return &DetailScreen{client: c, id: id}
}

// Load fetches the addon and then records a view. A failed view increment
// does not fail the screen; see ViewError.
func (s *DetailScreen) Load(ctx context.Context) (*Addon, error) {
	s.mu.Lock()
	s.state = StateLoading
	s.mu.Unlock()

	addon, err := s.client.GetAddon(ctx, s.id)
	if err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.state, s.err, s.addon = StateFailed, err, nil
		return nil, err
	}

	views, viewErr := s.client.IncrementViews(ctx, s.id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if viewErr == nil {
		addon.Views = views
	}
	s.state, s.err, s.viewErr = StateReady, nil, viewErr
	s.addon = addon
	s.image = 0
	out := *addon
	return &out, nil
}

func (s *DetailScreen) ViewError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewErr
}

func (s *DetailScreen) State() (LoadState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.err
}

// Addon returns a copy of the loaded addon, nil before a successful Load.
func (s *DetailScreen) Addon() *Addon {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addon == nil {
		return nil
	}
	out := *s.addon
	return &out
}

// CurrentImage returns the carousel position and URL.
func (s *DetailScreen) CurrentImage() (int, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addon == nil || len(s.addon.Images) == 0 {
		return 0, ""
	}
	return s.image, s.addon.Images[s.image]
}

func (s *DetailScreen) Next() (int, string) { return s.step(1) }

func (s *DetailScreen) Prev() (int, string) { return s.step(-1) }

func (s *DetailScreen) step(delta int) (int, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addon == nil || len(s.addon.Images) == 0 {
		return 0, ""
	}
	n := len(s.addon.Images)
	s.image = ((s.image+delta)%n + n) % n
	return s.image, s.addon.Images[s.image]
}

// Download records a download and returns the link's URL to open. The local
// counter is only bumped once the server accepted the increment.
func (s *DetailScreen) Download(ctx context.Context, link DownloadLink) (string, error) {
	s.mu.Lock()
	loaded := s.addon != nil
	s.mu.Unlock()
	if !loaded {
		return "", errors.New("addonhub: addon not loaded")
	}

	downloads, err := s.client.IncrementDownloads(ctx, s.id)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addon != nil {
		s.addon.Downloads = downloads
	}
	return link.URL, nil
}

// DashboardScreen is the signed-in user's own addons and stats.
type DashboardScreen struct {
	client *Client
	userID string

	mu      sync.Mutex
	state   LoadState
	profile *Profile
	err     error
}

func NewDashboardScreen(c *Client, userID string) *DashboardScreen {
	return &DashboardScreen{client: c, userID: userID}
}

func (s *DashboardScreen) Load(ctx context.Context) (*Profile, error) {
	if s.client.Token() == "" {
		return nil, ErrNotSignedIn
	}
	s.mu.Lock()
	s.state = StateLoading
	s.mu.Unlock()

	profile, err := s.client.GetUser(ctx, s.userID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state, s.err = StateFailed, err
		return nil, err
	}
	s.state, s.err, s.profile = StateReady, nil, profile
	return copyProfile(profile), nil
}

// Profile returns a copy of the loaded profile, nil before a successful Load.
func (s *DashboardScreen) Profile() *Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyProfile(s.profile)
}

func copyProfile(p *Profile) *Profile {
	if p == nil {
		return nil
	}
	out := *p
	out.Addons = append([]Addon(nil), p.Addons...)
	return &out
}

func (s *DashboardScreen) State() (LoadState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.err
}

// Delete removes the addon server side, then drops it from the loaded list
// and takes its counters out of the stats.
func (s *DashboardScreen) Delete(ctx context.Context, addonID string) error {
	if err := s.client.DeleteAddon(ctx, addonID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return nil
	}
	kept := make([]Addon, 0, len(s.profile.Addons))
	for _, a := range s.profile.Addons {
		if a.ID == addonID {
			s.profile.Stats.TotalAddons--
			s.profile.Stats.TotalViews -= a.Views
			s.profile.Stats.TotalDownloads -= a.Downloads
			continue
		}
		kept = append(kept, a)
	}
	s.profile.Addons = kept
	return nil
}

// ProfileScreen is any user's public profile.
type ProfileScreen struct {
	client *Client
	userID string

	mu      sync.Mutex
	state   LoadState
	profile *Profile
	err     error
}

func NewProfileScreen(c *Client, userID string) *ProfileScreen {
	return &ProfileScreen{client: c, userID: userID}
}

func (s *ProfileScreen) Load(ctx context.Context) (*Profile, error) {
	s.mu.Lock()
	s.state = StateLoading
	s.mu.Unlock()

	profile, err := s.client.GetUser(ctx, s.userID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state, s.err, s.profile = StateFailed, err, nil
		return nil, err
	}
	s.state, s.err, s.profile = StateReady, nil, profile
	return profile, nil
}

func (s *ProfileScreen) State() (LoadState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.err
}
