package model

// FavTopic bookmarks a topic for a user. The pair is the identity;
// the row disappears when either side is deleted.
type FavTopic struct {
	UserID  int64 `json:"userId" db:"user_id"`
	TopicID int64 `json:"topicId" db:"topic_id"`
}

// TableName returns the database table name for FavTopic.
func (f FavTopic) TableName() string {
	return tablePrefix + "fav_topic"
}

// NewFavTopic creates a bookmark of topicID for userID.
func NewFavTopic(userID, topicID int64) FavTopic {
	return FavTopic{UserID: userID, TopicID: topicID}
}
