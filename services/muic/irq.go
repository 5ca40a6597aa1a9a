package muic

// IRQPin is the INTB line. The handler runs in interrupt context.
type IRQPin interface {
	SetIRQ(handler func()) error
	ClearIRQ() error
}

// WatchIRQ routes INTB to the trigger queue. The handler only does a
// non-blocking send; the register reads happen in Run.
func (s *Service) WatchIRQ(pin IRQPin) (cancel func(), err error) {
	if err := pin.SetIRQ(func() { s.Fire(Interrupt) }); err != nil {
		return nil, err
	}
	return func() { _ = pin.ClearIRQ() }, nil
}
