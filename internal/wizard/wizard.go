package wizard

// Step titles in order.
var Steps = []string{
	"Merchant Creation",
	"Account Creation",
	"Rules Mapping",
	"File Upload",
	"Reconciliation",
	"View Transactions",
}

// StepStatus is how the step indicator renders a step.
type StepStatus string

const (
	Complete StepStatus = "complete"
	Active   StepStatus = "active"
	Upcoming StepStatus = "upcoming"
)

// Controller tracks the current step. Navigation is free: any step can be
// reached from any other and nothing is gated on earlier steps.
type Controller struct {
	titles  []string
	current int
}

func New() *Controller {
	return &Controller{titles: Steps}
}

// NewWithSteps builds a controller over custom titles.
func NewWithSteps(titles []string) *Controller {
	return &Controller{titles: append([]string(nil), titles...)}
}

func (c *Controller) Len() int      { return len(c.titles) }
func (c *Controller) Current() int  { return c.current }
func (c *Controller) Title() string { return c.TitleAt(c.current) }

func (c *Controller) TitleAt(i int) string {
	if i < 0 || i >= len(c.titles) {
		return ""
	}
	return c.titles[i]
}

// Jump moves straight to step i; out-of-range indexes are ignored.
func (c *Controller) Jump(i int) bool {
	if i < 0 || i >= len(c.titles) || i == c.current {
		return false
	}
	c.current = i
	return true
}

// Next advances one step, stopping at the last.
func (c *Controller) Next() bool {
	if !c.CanNext() {
		return false
	}
	c.current++
	return true
}

// Prev goes back one step, stopping at the first.
func (c *Controller) Prev() bool {
	if !c.CanPrev() {
		return false
	}
	c.current--
	return true
}

func (c *Controller) CanPrev() bool { return c.current > 0 }
func (c *Controller) CanNext() bool { return c.current < len(c.titles)-1 }

func (c *Controller) Status(i int) StepStatus {
	switch {
	case i < c.current:
		return Complete
	case i == c.current:
		return Active
	default:
		return Upcoming
	}
}
