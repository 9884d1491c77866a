package plan

import (
	"time"

	"github.com/google/uuid"
)

// Kind distinguishes the budget plan flavours. Only personal plans take
// part in debt conversion; event plans (holiday, carnival) are settled as
// a lump and never carry obligations forward.
type Kind string

const (
	KindPersonal Kind = "personal"
	KindHoliday  Kind = "holiday"
	KindCarnival Kind = "carnival"
)

// DefaultDueDay is the day of month an expense falls due when neither the
// expense nor the plan says otherwise.
const DefaultDueDay = 27

// Plan is the budget plan read model: the settings the payment and
// carryover flows need, not the full planning surface.
type Plan struct {
	ID               uuid.UUID
	Name             string
	Kind             Kind
	PayDate          *int // day of month income arrives; also the default due day
	SavingsBalance   float64
	MonthlyAllowance float64
	CreatedAt        time.Time
}

// DueDay returns the plan's default due day for expenses without an
// explicit due date.
func (p *Plan) DueDay() int {
	if p.PayDate != nil && *p.PayDate >= 1 && *p.PayDate <= 31 {
		return *p.PayDate
	}

	return DefaultDueDay
}
