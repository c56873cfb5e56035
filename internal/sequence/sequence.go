// Package sequence plays a developmental timeline: an ordered list of
// age-stage clips the demo steps through, driving the pipeline through
// injected hooks instead of holding a reference to it.
package sequence

import "errors"

// Clip holds one developmental stage on the timeline.
type Clip struct {
	Name      string  `json:"name" yaml:"name"`
	Age       int     `json:"age" yaml:"age"`
	DurationS float64 `json:"durationS" yaml:"duration_s"`
	Vignette  *bool   `json:"vignette,omitempty" yaml:"vignette,omitempty"`
}

// Program is a full timeline of clips.
type Program struct {
	Loop  bool   `json:"loop,omitempty" yaml:"loop,omitempty"`
	Clips []Clip `json:"clips" yaml:"clips"`
}

// PlayerState enumerates player states.
type PlayerState string

const (
	Idle    PlayerState = "idle"
	Running PlayerState = "running"
	Paused  PlayerState = "paused"
)

// Hooks are dependency-injected callbacks into the pipeline engine.
type Hooks struct {
	SetAge      func(age int) error
	SetVignette func(on bool)
}

// Player owns the current Program timeline and advances it by wall time.
type Player struct {
	State PlayerState

	prog  Program
	nowS  float64
	idx   int
	hooks Hooks
}

// NewPlayer constructs a Player with the provided hooks.
func NewPlayer(h Hooks) *Player {
	return &Player{State: Idle, hooks: h}
}

// Load replaces the current program. Resets time and state to Idle.
func (p *Player) Load(prog Program) error {
	if len(prog.Clips) == 0 {
		return errors.New("program has no clips")
	}
	for _, c := range prog.Clips {
		if c.DurationS <= 0 {
			return errors.New("clip duration must be positive: " + c.Name)
		}
	}
	p.prog = prog
	p.nowS = 0
	p.idx = 0
	p.State = Idle
	return nil
}

// Start moves to Running and primes the first clip.
func (p *Player) Start() error {
	if p.State == Running {
		return nil
	}
	if len(p.prog.Clips) == 0 {
		return errors.New("no program loaded")
	}
	p.State = Running
	return p.apply(p.prog.Clips[p.idx])
}

// Pause pauses playback.
func (p *Player) Pause() {
	if p.State == Running {
		p.State = Paused
	}
}

// Resume resumes playback.
func (p *Player) Resume() {
	if p.State == Paused {
		p.State = Running
	}
}

// Stop stops and resets to the start of the program.
func (p *Player) Stop() {
	p.State = Idle
	p.nowS = 0
	p.idx = 0
}

// Current reports the active clip; ok is false when nothing is loaded.
func (p *Player) Current() (Clip, bool) {
	if len(p.prog.Clips) == 0 {
		return Clip{}, false
	}
	return p.prog.Clips[p.idx], true
}

// Tick advances the timeline by dt seconds, switching clips as their
// durations elapse. At the end of a non-looping program the player
// stays on the last clip and idles.
func (p *Player) Tick(dt float64) error {
	if p.State != Running || dt <= 0 {
		return nil
	}
	p.nowS += dt
	for p.nowS >= p.prog.Clips[p.idx].DurationS {
		p.nowS -= p.prog.Clips[p.idx].DurationS
		if p.idx+1 < len(p.prog.Clips) {
			p.idx++
		} else if p.prog.Loop {
			p.idx = 0
		} else {
			p.State = Idle
			p.nowS = 0
			return nil
		}
		if err := p.apply(p.prog.Clips[p.idx]); err != nil {
			return err
		}
	}
	return nil
}

func (p *Player) apply(c Clip) error {
	if p.hooks.SetAge != nil {
		if err := p.hooks.SetAge(c.Age); err != nil {
			return err
		}
	}
	if c.Vignette != nil && p.hooks.SetVignette != nil {
		p.hooks.SetVignette(*c.Vignette)
	}
	return nil
}

// Growth returns the standard 1->3 month demonstration program.
func Growth(clipSeconds float64) Program {
	if clipSeconds <= 0 {
		clipSeconds = 10
	}
	return Program{
		Loop: true,
		Clips: []Clip{
			{Name: "newborn gaze", Age: 1, DurationS: clipSeconds},
			{Name: "first discrimination", Age: 2, DurationS: clipSeconds},
			{Name: "tracking and color", Age: 3, DurationS: clipSeconds},
		},
	}
}
