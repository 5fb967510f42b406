package domain

// Book is a story the child reads during the daily session.
type Book struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Topic     string   `json:"topic"`
	PageCount int      `json:"page_count"`
	MinAge    int      `json:"min_age"`
	MaxAge    int      `json:"max_age"`
	Tags      []string `json:"tags,omitempty"`
}

// Lesson is a scripture passage plus its puzzle material.
type Lesson struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Topic     string `json:"topic"`
	Reference string `json:"reference"`
	Verse     string `json:"verse"`
}

// Voice is a narration voice available for book read-aloud.
type Voice struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Language string `json:"language"`
	Preview  string `json:"preview_url,omitempty"`
}

// Campaign is a giving (donation) campaign children can contribute coins to.
type Campaign struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	GoalCoins   int64  `json:"goal_coins"`
	RaisedCoins int64  `json:"raised_coins"`
}

// DiscussionRequest describes the constraints for AI-generated discussion
// questions: topic plus length and age bounds.
type DiscussionRequest struct {
	Topic        string `json:"topic"`
	MaxQuestions int    `json:"max_questions"`
	TargetAge    int    `json:"target_age"`
}

// ShopItem is a coin-purchasable avatar accessory.
type ShopItem struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Slot  string `json:"slot"`
	Price int64  `json:"price"`
}
