package payment

// Notice is a queued message for a customer, sent by the host after the
// booking flow finishes.
type Notice struct {
	To      string
	Subject string
	Body    string
}

// Notices is request scoped and not safe for concurrent use.
type Notices struct {
	Confirms []Notice
	Errors   []string
}

func (n *Notices) Confirm(notice Notice) {
	n.Confirms = append(n.Confirms, notice)
}

func (n *Notices) ClearConfirms() {
	if n == nil {
		return
	}
	n.Confirms = nil
}

func (n *Notices) Error(msg string) {
	n.Errors = append(n.Errors, msg)
}
