package consent

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// PlaceholderMeasurementID is the measurement id shipped in templates before
// a real property is configured. The script is never loaded for it.
const PlaceholderMeasurementID = "G-0000000000"

const (
	DefaultBannerDelay        = time.Second
	DefaultToastDuration      = 3 * time.Second
	DefaultTransitionDuration = 300 * time.Millisecond
)

type State string

const (
	StateUndecided State = "undecided"
	StateAccepted  State = "accepted"
	StateRejected  State = "rejected"
	StateCustom    State = "custom"
)

// Analytics is the consent-mode API of the analytics tag.
type Analytics interface {
	// UpdateConsent switches analytics storage between granted and denied.
	UpdateConsent(granted bool)
	LoadScript(measurementID string) error
}

type Timer interface {
	Stop() bool
}

type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type Options struct {
	MeasurementID      string
	BannerDelay        time.Duration
	ToastDuration      time.Duration
	TransitionDuration time.Duration
	Scheduler          Scheduler
	Logger             *zap.Logger
}

func (o *Options) withDefaults() {
	if o.BannerDelay == 0 {
		o.BannerDelay = DefaultBannerDelay
	}
	if o.ToastDuration == 0 {
		o.ToastDuration = DefaultToastDuration
	}
	if o.TransitionDuration == 0 {
		o.TransitionDuration = DefaultTransitionDuration
	}
	if o.Scheduler == nil {
		o.Scheduler = realScheduler{}
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// View is a snapshot of everything the page renders from the manager.
type View struct {
	State           State
	BannerVisible   bool
	DialogVisible   bool
	ToastVisible    bool
	Focus           Control
	AnalyticsToggle bool
	StatusText      string
}

// Manager owns the consent state of one page session. All methods are safe
// to call from timer callbacks and UI handlers concurrently.
type Manager struct {
	mu        sync.Mutex
	store     Store
	analytics Analytics
	opts      Options

	state         State
	pref          *Preference
	bannerVisible bool
	dialogVisible bool
	toastVisible  bool
	focus         Control
	trigger       Control
	toggle        bool
	scriptLoaded  bool
	bannerTimer   Timer
	toastTimer    Timer
}

func NewManager(store Store, analytics Analytics, opts Options) *Manager {
	opts.withDefaults()
	return &Manager{
		store:     store,
		analytics: analytics,
		opts:      opts,
		state:     StateUndecided,
	}
}

// Init reads the persisted preference. Without one the banner is scheduled to
// appear after the banner delay; with analytics granted the script is loaded.
func (m *Manager) Init() {
	m.mu.Lock()
	defer m.mu.Unlock()

	pref := m.loadPreference()
	m.pref = pref
	switch {
	case pref == nil:
		m.state = StateUndecided
		m.bannerTimer = m.opts.Scheduler.AfterFunc(m.opts.BannerDelay, m.showBanner)
	case pref.Analytics:
		m.state = StateAccepted
		m.loadAnalytics()
	default:
		m.state = StateRejected
	}
}

// Accept grants analytics from the banner.
func (m *Manager) Accept() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.persist(Preference{Analytics: true})
	m.state = StateAccepted
	m.hideBanner()
	m.loadAnalytics()
}

// Reject denies analytics from the banner.
func (m *Manager) Reject() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.persist(Preference{})
	m.state = StateRejected
	m.analytics.UpdateConsent(false)
	m.hideBanner()
}

// OpenPreferences shows the dialog. trigger receives focus back when the
// dialog closes; opening from the banner's preferences button hides the banner.
func (m *Manager) OpenPreferences(trigger Control) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if trigger == ControlPreferences {
		m.hideBanner()
	}
	m.pref = m.loadPreference()
	m.toggle = m.pref != nil && m.pref.Analytics
	m.trigger = trigger
	m.dialogVisible = true
	m.focus = ControlAnalyticsToggle
}

func (m *Manager) ToggleAnalytics() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.dialogVisible {
		m.toggle = !m.toggle
	}
}

// Save persists the dialog's choice. A denial is always signalled to the
// analytics tag so that an earlier grant is revoked.
func (m *Manager) Save() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.dialogVisible {
		return
	}
	m.persist(Preference{Analytics: m.toggle})
	m.state = StateCustom
	m.stopBannerTimer()
	if m.toggle {
		m.loadAnalytics()
	} else {
		m.analytics.UpdateConsent(false)
	}
	m.closeDialog()
	m.showToast()
}

// Cancel closes the dialog without changing the preference.
func (m *Manager) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closeDialog()
}

// DismissDialog handles a click on the dialog backdrop. The banner has no
// equivalent: it only closes on an explicit choice.
func (m *Manager) DismissDialog() {
	m.Cancel()
}

// Focus moves focus to c when c belongs to the active trap.
func (m *Manager) Focus(c Control) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if controls := m.activeControls(); contains(controls, c) {
		m.focus = c
	}
}

// HandleKey applies a key press to the visible overlay and reports whether
// it was consumed. Escape closes the dialog and is ignored by the banner.
func (m *Manager) HandleKey(k Key) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	controls := m.activeControls()
	if controls == nil {
		return false
	}

	switch k {
	case KeyTab, KeyShiftTab:
		m.focus = cycle(controls, m.focus, k == KeyShiftTab)
		return true
	case KeyEscape:
		if !m.dialogVisible {
			return false
		}
		m.closeDialog()
		return true
	case KeyEnter, KeySpace:
		if m.dialogVisible && m.focus == ControlAnalyticsToggle {
			m.toggle = !m.toggle
			return true
		}
	}
	return false
}

func (m *Manager) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()

	return View{
		State:           m.state,
		BannerVisible:   m.bannerVisible,
		DialogVisible:   m.dialogVisible,
		ToastVisible:    m.toastVisible,
		Focus:           m.focus,
		AnalyticsToggle: m.toggle,
		StatusText:      m.pref.Status(),
	}
}

// ScriptLoaded reports whether the analytics script was loaded this session.
func (m *Manager) ScriptLoaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scriptLoaded
}

func (m *Manager) activeControls() []Control {
	switch {
	case m.dialogVisible:
		return DialogControls
	case m.bannerVisible:
		return BannerControls
	}
	return nil
}

func (m *Manager) loadPreference() *Preference {
	pref, err := LoadPreference(m.store)
	if err != nil {
		m.opts.Logger.Warn("consent preference unreadable, treating as undecided", zap.Error(err))
		return nil
	}
	return pref
}

// persist records pref for the session even when the store rejects it.
func (m *Manager) persist(pref Preference) {
	m.pref = &pref
	if err := SavePreference(m.store, pref); err != nil {
		m.opts.Logger.Error("consent preference not saved", zap.Error(err))
	}
}

// loadAnalytics grants consent mode first, then loads the script at most once.
func (m *Manager) loadAnalytics() {
	m.analytics.UpdateConsent(true)

	if m.scriptLoaded {
		return
	}
	id := m.opts.MeasurementID
	if id == "" || id == PlaceholderMeasurementID {
		return
	}
	if err := m.analytics.LoadScript(id); err != nil {
		m.opts.Logger.Error("analytics script failed to load", zap.String("measurement_id", id), zap.Error(err))
		return
	}
	m.scriptLoaded = true
}

func (m *Manager) showBanner() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.bannerTimer = nil
	if m.state != StateUndecided {
		return
	}
	m.bannerVisible = true
	if !m.dialogVisible {
		m.focus = BannerControls[0]
	}
}

func (m *Manager) hideBanner() {
	m.stopBannerTimer()
	if !m.bannerVisible {
		return
	}
	m.bannerVisible = false
	if contains(BannerControls, m.focus) {
		m.focus = ""
	}
}

func (m *Manager) stopBannerTimer() {
	if m.bannerTimer != nil {
		m.bannerTimer.Stop()
		m.bannerTimer = nil
	}
}

// closeDialog hides the dialog now and returns focus to the trigger once the
// fade-out transition has finished.
func (m *Manager) closeDialog() {
	if !m.dialogVisible {
		return
	}
	m.dialogVisible = false
	m.focus = ""
	trigger := m.trigger
	m.trigger = ""
	if trigger == "" {
		return
	}
	m.opts.Scheduler.AfterFunc(m.opts.TransitionDuration, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if !m.dialogVisible {
			m.focus = trigger
		}
	})
}

func (m *Manager) showToast() {
	if m.toastTimer != nil {
		m.toastTimer.Stop()
	}
	m.toastVisible = true
	m.toastTimer = m.opts.Scheduler.AfterFunc(m.opts.ToastDuration, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.toastVisible = false
		m.toastTimer = nil
	})
}
