package messaging

// SenderProfile overrides the display name and icon of a message. At least
// one of the two must be set.
type SenderProfile struct {
	Name    string `json:"name,omitempty"`
	IconURL string `json:"iconUrl,omitempty"`
}

type QuickReply struct {
	Items []QuickReplyItem `json:"items"`
}

// QuickReplyItem is one button of a quick reply bar.
type QuickReplyItem struct {
	ImageURL string `json:"imageUrl,omitempty"`
	Action   Action `json:"action"`
}

func NewQuickReplyItem(action Action, imageURL string) QuickReplyItem {
	return QuickReplyItem{ImageURL: imageURL, Action: action}
}

func (i QuickReplyItem) MarshalJSON() ([]byte, error) {
	type wire QuickReplyItem
	return marshalTyped("action", wire(i))
}

const (
	ActionMessage  = "message"
	ActionPostback = "postback"
	ActionURI      = "uri"
)

// Action is the behaviour bound to a quick reply item.
type Action struct {
	Type        string `json:"type"`
	Label       string `json:"label"`
	Text        string `json:"text,omitempty"`
	Data        string `json:"data,omitempty"`
	DisplayText string `json:"displayText,omitempty"`
	URI         string `json:"uri,omitempty"`
}

// MessageAction sends text as the user when tapped.
func MessageAction(label, text string) Action {
	return Action{Type: ActionMessage, Label: label, Text: text}
}

// PostbackAction returns data in a postback event. displayText is optional.
func PostbackAction(label, data, displayText string) Action {
	return Action{Type: ActionPostback, Label: label, Data: data, DisplayText: displayText}
}

func URIAction(label, uri string) Action {
	return Action{Type: ActionURI, Label: label, URI: uri}
}
