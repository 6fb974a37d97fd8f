package presence

// SystemID is the origin of every server-authored event.
const SystemID = "system"

// TimestampLayout formats relay timestamps as ISO-8601 UTC with milliseconds.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Outbound event names.
const (
	EventConnectionDenied = "connectionDenied"
	EventWelcome          = "welcome"
	EventUserJoined       = "userJoined"
	EventServerMessage    = "serverMessage"
	EventUserLeft         = "userLeft"
)

// EventClientMessage is the only inbound event name.
const EventClientMessage = "clientMessage"

// Texts carried by server-authored events.
const (
	CapacityText = "Server is at maximum capacity. Please try again later."
	WelcomeText  = "Welcome to the presence relay!"
	JoinedText   = "A new user joined"
	LeftText     = "User disconnected"
)

// Event is one outbound notification, encoded on the wire as
// {"event": Name, "data": Data}.
type Event struct {
	Name string  `json:"event"`
	Data Payload `json:"data"`
}

// Payload holds the fields of an outbound event. UserName is set on
// lifecycle events and Timestamp on relayed chat messages.
type Payload struct {
	UserID    string `json:"userId"`
	Message   string `json:"message"`
	UserName  string `json:"userName,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// ClientMessage is the payload of an inbound clientMessage event. A nil
// Message means the field was absent.
type ClientMessage struct {
	Message *string `json:"message"`
}

func connectionDenied() Event {
	return Event{Name: EventConnectionDenied, Data: Payload{UserID: SystemID, Message: CapacityText}}
}

func welcome(name string) Event {
	return Event{Name: EventWelcome, Data: Payload{UserID: SystemID, Message: WelcomeText, UserName: name}}
}

func userJoined(name string) Event {
	return Event{Name: EventUserJoined, Data: Payload{UserID: SystemID, Message: JoinedText, UserName: name}}
}

func userLeft(name string) Event {
	return Event{Name: EventUserLeft, Data: Payload{UserID: SystemID, Message: LeftText, UserName: name}}
}

func serverMessage(sender, text, timestamp string) Event {
	return Event{Name: EventServerMessage, Data: Payload{UserID: sender, Message: text, Timestamp: timestamp}}
}
