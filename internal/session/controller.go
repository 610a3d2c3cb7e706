// Package session runs the save, restore, restore-all and auto-resize
// triggers against the record store.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"windowresizer/internal/windowsize"
	"windowresizer/internal/winctl"
)

var (
	// ErrSuppressed is returned when a trigger is skipped because the
	// foreground window is full screen.
	ErrSuppressed = errors.New("suppressed while a full-screen window is in the foreground")
	// ErrMinimized is returned by Save for an iconic window.
	ErrMinimized = errors.New("window is minimized")
)

// WindowControl is the native window surface the controller drives.
type WindowControl interface {
	OpenWindows() ([]winctl.Handle, error)
	ForegroundWindow() (winctl.Handle, error)
	IsChildWindow(h winctl.Handle) bool
	WindowRect(h winctl.Handle) (windowsize.Rect, error)
	WindowState(h winctl.Handle) (windowsize.State, error)
	MoveWindow(h winctl.Handle, rect windowsize.Rect) error
	MaximizeWindow(h winctl.Handle) error
	ResolveProcess(h winctl.Handle) (winctl.ProcessInfo, error)
	IsForegroundFullScreen() (bool, error)
}

// Notifier shows a short message to the user.
type Notifier interface {
	Notify(title, message string) error
}

// Persister writes the records back to durable storage.
type Persister interface {
	Persist(records []windowsize.Record) error
}

// State is the mutable engine state shared by all triggers. It is owned by
// the goroutine that calls the Controller.
type State struct {
	DisableInFullScreen bool
	Store               *windowsize.Store
}

// Outcome describes what a restore did to one window.
type Outcome struct {
	Handle   winctl.Handle
	Process  string
	Title    string
	Applied  bool
	Category windowsize.Category
	Record   windowsize.Record
}

// BulkResult summarizes RestoreAll.
type BulkResult struct {
	Applied []Outcome
	Skipped int
	Failed  int
}

// applyPolicy distinguishes the three restore flavours.
type applyPolicy struct {
	autoOnly   bool
	notifyMiss bool
}

var (
	restorePolicy    = applyPolicy{notifyMiss: true}
	restoreAllPolicy = applyPolicy{}
	autoPolicy       = applyPolicy{autoOnly: true}
)

// Controller orchestrates triggers. Not safe for concurrent use.
type Controller struct {
	state     *State
	windows   WindowControl
	notifier  Notifier
	persister Persister
}

// NewController wires a controller. notifier and persister may be nil.
func NewController(state *State, windows WindowControl, notifier Notifier, persister Persister) *Controller {
	if state.Store == nil {
		state.Store = windowsize.NewStore(nil)
	}
	return &Controller{
		state:     state,
		windows:   windows,
		notifier:  notifier,
		persister: persister,
	}
}

// State returns the state the controller operates on.
func (c *Controller) State() *State { return c.state }

// Save records the foreground window's geometry and persists the store.
func (c *Controller) Save(ctx context.Context) (windowsize.Result, error) {
	log := loggerFrom(ctx).With("trigger", "save")
	if c.suppressed(log) {
		return windowsize.Result{}, ErrSuppressed
	}

	h, err := c.windows.ForegroundWindow()
	if err != nil {
		return windowsize.Result{}, fmt.Errorf("foreground window: %w", err)
	}
	info, err := c.windows.ResolveProcess(h)
	if err != nil {
		log.Debug("[DEBUG-SESSION] save abandoned: process resolution failed", "window", h, "error", err)
		return windowsize.Result{}, fmt.Errorf("resolve window %s: %w", h, err)
	}
	if strings.TrimSpace(info.ModuleName) == "" {
		log.Debug("[DEBUG-SESSION] save abandoned: empty module name", "window", h)
		return windowsize.Result{}, fmt.Errorf("resolve window %s: %w", h, winctl.ErrProcessNotFound)
	}

	state, err := c.windows.WindowState(h)
	if err != nil {
		return windowsize.Result{}, fmt.Errorf("window state %s: %w", h, err)
	}
	if state == windowsize.StateMinimized {
		log.Debug("[DEBUG-SESSION] save skipped for minimized window", "process", info.ModuleName)
		return windowsize.Result{}, ErrMinimized
	}
	rect, err := c.windows.WindowRect(h)
	if err != nil {
		return windowsize.Result{}, fmt.Errorf("window rect %s: %w", h, err)
	}

	match := windowsize.MatchWindow(c.state.Store, info.ModuleName, info.WindowTitle, false)
	res, err := windowsize.Reconcile(c.state.Store, match, windowsize.Observation{
		Process: info.ModuleName,
		Title:   info.WindowTitle,
		Rect:    rect,
		State:   state,
	})
	if err != nil {
		return res, err
	}
	for _, change := range res.Changes {
		log.Info("[session] record saved",
			"process", change.Record.Name,
			"pattern", change.Record.Title,
			"category", change.Category.String(),
			"inserted", change.Inserted,
			"rect", change.Record.Rect.String(),
			"state", change.Record.State.String())
	}
	if !res.Changed() {
		return res, nil
	}
	if err := c.persist(); err != nil {
		return res, err
	}
	return res, nil
}

// Restore applies the best saved geometry to the foreground window and
// notifies the user when nothing matches.
func (c *Controller) Restore(ctx context.Context) (Outcome, error) {
	log := loggerFrom(ctx).With("trigger", "restore")
	if c.suppressed(log) {
		return Outcome{}, ErrSuppressed
	}
	h, err := c.windows.ForegroundWindow()
	if err != nil {
		return Outcome{}, fmt.Errorf("foreground window: %w", err)
	}
	return c.apply(log, h, restorePolicy)
}

// RestoreAll restores every open window, last enumerated first. A failing
// window is logged and skipped.
func (c *Controller) RestoreAll(ctx context.Context) (BulkResult, error) {
	log := loggerFrom(ctx).With("trigger", "restore-all")
	if c.suppressed(log) {
		return BulkResult{}, ErrSuppressed
	}
	handles, err := c.windows.OpenWindows()
	if err != nil {
		return BulkResult{}, fmt.Errorf("list windows: %w", err)
	}

	var result BulkResult
	for i := len(handles) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		outcome, err := c.apply(log, handles[i], restoreAllPolicy)
		switch {
		case err != nil:
			result.Failed++
			log.Warn("[WARN-SESSION] restore-all skipped window", "window", handles[i], "error", err)
		case outcome.Applied:
			result.Applied = append(result.Applied, outcome)
		default:
			result.Skipped++
		}
	}
	log.Info("[session] restore-all finished",
		"applied", len(result.Applied), "skipped", result.Skipped, "failed", result.Failed)
	return result, nil
}

// AutoResize applies a record opted into automatic resizing to a newly
// shown window. It never creates records and never notifies.
func (c *Controller) AutoResize(ctx context.Context, h winctl.Handle) (Outcome, error) {
	log := loggerFrom(ctx).With("trigger", "auto-resize")
	if c.suppressed(log) {
		return Outcome{}, ErrSuppressed
	}
	return c.apply(log, h, autoPolicy)
}

func (c *Controller) apply(log *slog.Logger, h winctl.Handle, policy applyPolicy) (Outcome, error) {
	out := Outcome{Handle: h}
	if c.windows.IsChildWindow(h) {
		log.Debug("[DEBUG-SESSION] child window skipped", "window", h)
		return out, nil
	}
	info, err := c.windows.ResolveProcess(h)
	if err != nil || strings.TrimSpace(info.ModuleName) == "" {
		log.Debug("[DEBUG-SESSION] restore abandoned: process resolution failed", "window", h, "error", err)
		return out, nil
	}
	out.Process, out.Title = info.ModuleName, info.WindowTitle

	match := windowsize.MatchWindow(c.state.Store, info.ModuleName, info.WindowTitle, policy.autoOnly)
	record, category, ok := match.Best()
	if !ok {
		if policy.notifyMiss {
			c.notify("WindowResizer", missMessage(info))
		}
		log.Debug("[DEBUG-SESSION] no saved size", "process", info.ModuleName, "title", info.WindowTitle)
		return out, nil
	}
	out.Category, out.Record = category, *record

	if record.State == windowsize.StateMaximized {
		if err := c.windows.MaximizeWindow(h); err != nil {
			return out, fmt.Errorf("maximize %s: %w", h, err)
		}
	} else {
		if !record.Rect.Valid() {
			return out, fmt.Errorf("record %s/%q: %w %s", record.Name, record.Title, windowsize.ErrInvalidRect, record.Rect)
		}
		if err := c.windows.MoveWindow(h, record.Rect); err != nil {
			return out, fmt.Errorf("move %s: %w", h, err)
		}
	}
	out.Applied = true
	log.Info("[session] window restored",
		"process", info.ModuleName,
		"title", info.WindowTitle,
		"pattern", record.Title,
		"category", category.String(),
		"state", record.State.String(),
		"rect", record.Rect.String())
	return out, nil
}

func (c *Controller) suppressed(log *slog.Logger) bool {
	if !c.state.DisableInFullScreen {
		return false
	}
	full, err := c.windows.IsForegroundFullScreen()
	if err != nil {
		log.Debug("[DEBUG-SESSION] full-screen check failed; continuing", "error", err)
		return false
	}
	if full {
		log.Debug("[DEBUG-SESSION] trigger suppressed: foreground window is full screen")
	}
	return full
}

func (c *Controller) persist() error {
	if c.persister == nil {
		return nil
	}
	if err := c.persister.Persist(c.state.Store.Records()); err != nil {
		return fmt.Errorf("persist records: %w", err)
	}
	return nil
}

func (c *Controller) notify(title, message string) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.Notify(title, message); err != nil {
		slog.Warn("[WARN-SESSION] notification failed", "error", err)
	}
}

func missMessage(info winctl.ProcessInfo) string {
	title := ""
	if strings.TrimSpace(info.WindowTitle) != "" {
		title = "(" + info.WindowTitle + ")"
	}
	return fmt.Sprintf("No saved settings for <%s>%s.", info.ModuleName, title)
}
