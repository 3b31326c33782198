package domain

// InboundMessage is a message received from the Discord gateway, reduced to what the
// relay needs. GuildID is empty for direct messages. ReferenceID is the message it
// replies to, if any.
type InboundMessage struct {
	ID          string
	ChannelID   string
	GuildID     string
	AuthorID    string
	AuthorName  string
	Content     string
	ReferenceID string
	Attachments []Attachment
}

// IsDirect reports whether the message was sent in a DM channel.
func (m *InboundMessage) IsDirect() bool {
	return m.GuildID == ""
}

// MessageEdit is a content change of an existing message.
type MessageEdit struct {
	ID        string
	ChannelID string
	GuildID   string
	AuthorID  string
	Content   string
}

// IsDirect reports whether the edited message lives in a DM channel.
func (e *MessageEdit) IsDirect() bool {
	return e.GuildID == ""
}

// MessageDelete identifies a deleted message.
type MessageDelete struct {
	ID        string
	ChannelID string
	GuildID   string
}

// IsDirect reports whether the deleted message lived in a DM channel.
func (d *MessageDelete) IsDirect() bool {
	return d.GuildID == ""
}

// ThreadArchive reports a thread that went from open to archived.
type ThreadArchive struct {
	ThreadID string
	ParentID string
	GuildID  string
}

// User is a Discord account as seen by the relay.
type User struct {
	ID   string
	Name string
	Bot  bool
}
