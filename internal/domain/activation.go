package domain

// Binding はライセンスキーの端末紐付け状態を表す。
// ゼロ値は未アクティベート状態。
type Binding struct {
	Device DeviceID
	Bound  bool
}

// Unbound は未アクティベート状態を返す。
func Unbound() Binding {
	return Binding{}
}

// BoundTo は指定端末に紐付いた状態を返す。
func BoundTo(device DeviceID) Binding {
	return Binding{Device: device, Bound: true}
}

// Outcome は状態遷移の結果種別。
type Outcome string

const (
	// OutcomeUnknownKey はカタログに存在しないキー。
	OutcomeUnknownKey Outcome = "unknown_key"
	// OutcomeValid は状態変更なしの有効判定。
	OutcomeValid Outcome = "valid"
	// OutcomeActivated は初回アクティベーション。
	OutcomeActivated Outcome = "activated"
	// OutcomeTransferred は別端末への移行。
	OutcomeTransferred Outcome = "transferred"
	// OutcomeBoundElsewhere は別端末で有効化済みのため拒否。
	OutcomeBoundElsewhere Outcome = "bound_elsewhere"
)

const (
	MessageValid          = "License key is valid"
	MessageInvalidKey     = "Invalid license key"
	MessageBoundElsewhere = "License key is already activated on another device"
	MessageTransferred    = "License key has been transferred to this device"
)

// Verdict はクライアントへ返す検証結果。
type Verdict struct {
	Valid   bool
	Message string
}

// Verdict は結果種別に対応する検証結果を返す。
func (o Outcome) Verdict() Verdict {
	switch o {
	case OutcomeValid, OutcomeActivated:
		return Verdict{Valid: true, Message: MessageValid}
	case OutcomeTransferred:
		return Verdict{Valid: true, Message: MessageTransferred}
	case OutcomeBoundElsewhere:
		return Verdict{Valid: false, Message: MessageBoundElsewhere}
	default:
		return Verdict{Valid: false, Message: MessageInvalidKey}
	}
}

// Decision は遷移表の評価結果。
type Decision struct {
	Outcome Outcome
	Current Binding
	Next    Binding
}

// Changed は状態の書き込みが必要かどうかを返す。
func (d Decision) Changed() bool {
	return d.Next != d.Current
}

// Decide はカタログで有効と確認済みのキーに対して遷移表を適用する。
//
//	Unbound,  検証のみ            -> Unbound           valid
//	Unbound,  アクティベート      -> Bound(device)     valid
//	Bound(d), device == d         -> Bound(d)          valid
//	Bound(d), 検証のみ, 別端末    -> Bound(d)          bound_elsewhere
//	Bound(d), アクティベート, 別端末 -> Bound(device)  transferred
func Decide(current Binding, device DeviceID, activate bool) Decision {
	if device == "" {
		device = UnknownDevice
	}
	d := Decision{Current: current, Next: current}

	switch {
	case !current.Bound && !activate:
		d.Outcome = OutcomeValid
	case !current.Bound:
		d.Outcome = OutcomeActivated
		d.Next = BoundTo(device)
	case current.Device == device:
		d.Outcome = OutcomeValid
	case !activate:
		d.Outcome = OutcomeBoundElsewhere
	default:
		d.Outcome = OutcomeTransferred
		d.Next = BoundTo(device)
	}
	return d
}
