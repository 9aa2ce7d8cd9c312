package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"marketadmin/internal/domain"
	"marketadmin/internal/listing"
	"marketadmin/internal/utils"
)

// Resource is a catalog entry: a list screen that can be opened.
type Resource struct {
	Name  string
	Title string
	// Roles may open the screen besides admins.
	Roles []string
	// Type is sent as the "type" scope parameter when set.
	Type string
	Open func(scope listing.Scope, opts listing.Options) Screen
}

// Allows reports whether role may open the resource.
func (r Resource) Allows(role string) bool {
	role = domain.NormalizeRole(role)
	if role == domain.RoleAdmin {
		return true
	}
	return slices.Contains(r.Roles, role)
}

// Request carries the caller of one service call.
type Request struct {
	ID      string
	Session domain.Session
}

// ResourceInfo is a catalog entry as shown to a caller.
type ResourceInfo struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	Open  bool   `json:"open"`
}

// ScreenInfo describes an open screen of the calling session.
type ScreenInfo struct {
	Resource string         `json:"resource"`
	Status   listing.Status `json:"status"`
	Count    int            `json:"count"`
	OpenedAt time.Time      `json:"openedAt"`
	UsedAt   time.Time      `json:"usedAt"`
}

type screenKey struct {
	session  string
	resource string
}

type openScreen struct {
	screen   Screen
	openedAt time.Time
	usedAt   time.Time
}

// ScreenService keeps the open screens of every session. Screens are
// opened on first use and closed explicitly or once idle for IdleTTL.
type ScreenService struct {
	resources map[string]Resource
	IdleTTL   time.Duration
	Observer  listing.Observer
	Now       func() time.Time
	NewID     func() string

	mu      sync.Mutex
	screens map[screenKey]*openScreen
}

func NewScreenService(resources []Resource, idleTTL time.Duration, observer listing.Observer) *ScreenService {
	byName := make(map[string]Resource, len(resources))
	for _, r := range resources {
		byName[r.Name] = r
	}
	return &ScreenService{
		resources: byName,
		IdleTTL:   idleTTL,
		Observer:  observer,
		screens:   map[screenKey]*openScreen{},
	}
}

func (s *ScreenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func sessionKey(sess domain.Session) string {
	if id := strings.TrimSpace(sess.ID); id != "" {
		return id
	}
	return domain.NormalizeRole(sess.Role) + ":" + sess.UserID
}

// Scope builds the load scope of a session for r.
func Scope(sess domain.Session, r Resource) listing.Scope {
	scope := listing.Scope{
		"role": domain.NormalizeRole(sess.Role),
		"id":   strings.TrimSpace(sess.UserID),
	}
	if r.Type != "" {
		scope["type"] = r.Type
	}
	return scope
}

func (s *ScreenService) resource(sess domain.Session, name string) (Resource, error) {
	r, ok := s.resources[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Resource{}, domain.NotFoundError{Resource: "screen", ID: name}
	}
	if !r.Allows(sess.Role) {
		return Resource{}, domain.ForbiddenError{Role: domain.NormalizeRole(sess.Role), Resource: r.Name}
	}
	return r, nil
}

// Catalog lists the resources the caller may open.
func (s *ScreenService) Catalog(req Request) []ResourceInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []ResourceInfo{}
	for _, r := range s.resources {
		if !r.Allows(req.Session.Role) {
			continue
		}
		_, open := s.screens[screenKey{sessionKey(req.Session), r.Name}]
		out = append(out, ResourceInfo{Name: r.Name, Title: r.Title, Open: open})
	}
	slices.SortFunc(out, func(a, b ResourceInfo) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Open returns the caller's screen for name, opening and loading it first
// when needed. A screen whose first load failed stays open in the errored
// state and the load error is returned alongside it.
func (s *ScreenService) Open(ctx context.Context, req Request, name string) (Screen, error) {
	r, err := s.resource(req.Session, name)
	if err != nil {
		return nil, err
	}
	key := screenKey{sessionKey(req.Session), r.Name}

	s.mu.Lock()
	if sc, ok := s.screens[key]; ok {
		sc.usedAt = s.now()
		s.mu.Unlock()
		return sc.screen, nil
	}
	screen := r.Open(Scope(req.Session, r), listing.Options{NewID: s.NewID, Now: s.Now, Observer: s.Observer})
	now := s.now()
	s.screens[key] = &openScreen{screen: screen, openedAt: now, usedAt: now}
	s.mu.Unlock()

	utils.LogEvent(req.ID, "screens", "open", fmt.Sprintf("resource=%s user=%s role=%s", r.Name, req.Session.UserID, req.Session.Role))
	if err := screen.Load(ctx); err != nil {
		utils.LogEvent(req.ID, "screens", "load_error", fmt.Sprintf("resource=%s err=%v", r.Name, err))
		return screen, err
	}
	return screen, nil
}

// Refresh reloads the caller's screen.
func (s *ScreenService) Refresh(ctx context.Context, req Request, name string) (Screen, error) {
	s.mu.Lock()
	_, existed := s.screens[screenKey{sessionKey(req.Session), strings.ToLower(strings.TrimSpace(name))}]
	s.mu.Unlock()

	screen, err := s.Open(ctx, req, name)
	if err != nil || !existed {
		return screen, err
	}
	utils.LogEvent(req.ID, "screens", "refresh", "resource="+screen.Resource())
	if err := screen.Load(ctx); err != nil {
		utils.LogEvent(req.ID, "screens", "load_error", fmt.Sprintf("resource=%s err=%v", screen.Resource(), err))
		return screen, err
	}
	return screen, nil
}

// View opens the screen if needed and computes one page of its rows.
func (s *ScreenService) View(ctx context.Context, req Request, name string, cr listing.Criteria, page, pageSize int) (Screen, View, error) {
	screen, err := s.Open(ctx, req, name)
	if screen == nil {
		return nil, View{}, err
	}
	view, qerr := screen.Query(cr, page, pageSize)
	if qerr != nil {
		return screen, View{}, qerr
	}
	return screen, view, err
}

func (s *ScreenService) Create(ctx context.Context, req Request, name string, raw []byte) (any, error) {
	screen, err := s.Open(ctx, req, name)
	if err != nil && screen == nil {
		return nil, err
	}
	item, err := screen.Create(ctx, raw)
	s.logMutation(req, screen, "create", "", err)
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Update patches one item. A missing id is reported as NotFoundError.
func (s *ScreenService) Update(ctx context.Context, req Request, name, id string, patch listing.Patch) (any, error) {
	screen, err := s.Open(ctx, req, name)
	if err != nil && screen == nil {
		return nil, err
	}
	item, found, err := screen.Update(ctx, id, patch)
	if err == nil && !found {
		err = domain.NotFoundError{Resource: screen.Resource(), ID: id}
	}
	s.logMutation(req, screen, "update", id, err)
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Delete removes one item. A missing id is reported as NotFoundError.
func (s *ScreenService) Delete(ctx context.Context, req Request, name, id string) error {
	screen, err := s.Open(ctx, req, name)
	if err != nil && screen == nil {
		return err
	}
	found, err := screen.Delete(ctx, id)
	if err == nil && !found {
		err = domain.NotFoundError{Resource: screen.Resource(), ID: id}
	}
	s.logMutation(req, screen, "delete", id, err)
	return err
}

func (s *ScreenService) Export(ctx context.Context, req Request, name, format string, cr listing.Criteria, w io.Writer) error {
	screen, err := s.Open(ctx, req, name)
	if err != nil && screen == nil {
		return err
	}
	if err := screen.Export(w, format, cr); err != nil {
		return err
	}
	utils.LogEvent(req.ID, "screens", "export", fmt.Sprintf("resource=%s format=%s", screen.Resource(), format))
	return nil
}

func (s *ScreenService) logMutation(req Request, screen Screen, op, id string, err error) {
	msg := "resource=" + screen.Resource()
	if id != "" {
		msg += " id=" + id
	}
	if err != nil {
		if errors.Is(err, listing.ErrClosed) {
			msg += " screen closed"
		} else {
			msg += " err=" + err.Error()
		}
		utils.LogEvent(req.ID, "screens", op+"_error", msg)
		return
	}
	utils.LogEvent(req.ID, "screens", op, msg)
}

// Close closes the caller's screen. It reports false when none was open.
func (s *ScreenService) Close(req Request, name string) bool {
	key := screenKey{sessionKey(req.Session), strings.ToLower(strings.TrimSpace(name))}
	s.mu.Lock()
	sc, ok := s.screens[key]
	delete(s.screens, key)
	s.mu.Unlock()
	if !ok {
		return false
	}
	sc.screen.Close()
	utils.LogEvent(req.ID, "screens", "close", "resource="+key.resource)
	return true
}

// List returns the caller's open screens ordered by resource.
func (s *ScreenService) List(req Request) []ScreenInfo {
	sk := sessionKey(req.Session)
	s.mu.Lock()
	open := []ScreenInfo{}
	held := []*openScreen{}
	for key, sc := range s.screens {
		if key.session == sk {
			open = append(open, ScreenInfo{Resource: key.resource, OpenedAt: sc.openedAt, UsedAt: sc.usedAt})
			held = append(held, sc)
		}
	}
	s.mu.Unlock()

	for i, sc := range held {
		meta := sc.screen.Meta()
		open[i].Status = meta.Status
		open[i].Count = meta.Count
	}
	slices.SortFunc(open, func(a, b ScreenInfo) int { return strings.Compare(a.Resource, b.Resource) })
	return open
}

// Sweep closes every screen unused since IdleTTL before now and returns
// how many were closed.
func (s *ScreenService) Sweep(now time.Time) int {
	if s.IdleTTL <= 0 {
		return 0
	}
	s.mu.Lock()
	idle := []*openScreen{}
	for key, sc := range s.screens {
		if now.Sub(sc.usedAt) >= s.IdleTTL {
			idle = append(idle, sc)
			delete(s.screens, key)
		}
	}
	s.mu.Unlock()

	for _, sc := range idle {
		sc.screen.Close()
	}
	if len(idle) > 0 {
		utils.LogEvent("", "screens", "sweep", fmt.Sprintf("closed=%d", len(idle)))
	}
	return len(idle)
}

// Run sweeps idle screens until ctx is done, then closes everything.
func (s *ScreenService) Run(ctx context.Context) {
	every := s.IdleTTL / 4
	if every < time.Second {
		every = time.Second
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			s.Shutdown()
			return
		case <-t.C:
			s.Sweep(s.now())
		}
	}
}

// Shutdown closes every open screen, cancelling their in-flight calls.
func (s *ScreenService) Shutdown() {
	s.mu.Lock()
	all := s.screens
	s.screens = map[screenKey]*openScreen{}
	s.mu.Unlock()
	for _, sc := range all {
		sc.screen.Close()
	}
	if len(all) > 0 {
		utils.LogEvent("", "screens", "shutdown", fmt.Sprintf("closed=%d", len(all)))
	}
}
