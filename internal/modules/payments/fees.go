package payments

type Method string

const (
	MethodCard           Method = "card"
	MethodBankTransfer   Method = "bank_transfer"
	MethodEWallet        Method = "ewallet"
	MethodVirtualAccount Method = "virtual_account"
)

// Fee rates per method: a percentage share (basis points, charged as the
// gateway fee) plus a fixed processing surcharge in cents.
type feeRate struct {
	percentBP  int
	fixedCents int
}

var feeTable = map[Method]feeRate{
	MethodCard:           {percentBP: 290, fixedCents: 0},
	MethodBankTransfer:   {percentBP: 0, fixedCents: 150},
	MethodEWallet:        {percentBP: 350, fixedCents: 100},
	MethodVirtualAccount: {percentBP: 150, fixedCents: 200},
}

type Fees struct {
	GatewayCents    int
	ProcessingCents int
	TotalCents      int
}

// ComputeFees is a pure table lookup. The percentage share always rounds up
// to the next cent so the platform never under-collects.
func ComputeFees(amountCents int, method Method) (Fees, error) {
	rate, ok := feeTable[method]
	if !ok {
		return Fees{}, ErrUnknownMethod
	}
	gateway := ceilDiv(amountCents*rate.percentBP, 10000)
	f := Fees{
		GatewayCents:    gateway,
		ProcessingCents: rate.fixedCents,
	}
	f.TotalCents = f.GatewayCents + f.ProcessingCents
	return f, nil
}

func (m Method) Valid() bool {
	_, ok := feeTable[m]
	return ok
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
