package api

import "time"

// TokenResponse is returned by POST /auth/login
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// User is a LexAI account as returned by the service
type User struct {
	ID        string `json:"id" yaml:"id"`
	Email     string `json:"email" yaml:"email"`
	FirstName string `json:"first_name,omitempty" yaml:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty" yaml:"last_name,omitempty"`
	IsAdmin   bool   `json:"is_admin" yaml:"is_admin"`
}

// DisplayName is "First Last", falling back to the email.
func (u User) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Email
	}
	return name
}

// RegisterRequest is the body of POST /auth/register
type RegisterRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// DetailResponse is the generic {"detail": "..."} acknowledgement.
type DetailResponse struct {
	Detail string `json:"detail"`
}

// AskRequest is the body of POST /ask. A nil SessionID is sent as null.
type AskRequest struct {
	Query     string  `json:"query"`
	SessionID *string `json:"session_id"`
}

// AskResponse is returned by POST /ask
type AskResponse struct {
	Answer     string `json:"answer"`
	SessionID  string `json:"session_id,omitempty"`
	AnswerID   string `json:"answer_id,omitempty"`
	FeedbackID string `json:"feedback_id,omitempty"`
}

// SessionMessage is a message inside GET /conversation/session/{id}
type SessionMessage struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Sender     string    `json:"sender"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
	Vote       *string   `json:"vote"`
	FeedbackID *string   `json:"feedback_id"`
}

// SessionDetail is returned by GET /conversation/session/{id}
type SessionDetail struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Title     string           `json:"title"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	Messages  []SessionMessage `json:"messages"`
}

// SessionSummary is an element of GET /conversation/list
type SessionSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// RenameRequest is the body of PATCH /conversation/session/{id}
type RenameRequest struct {
	Title string `json:"title"`
}

// VoteRequest is the body of PATCH /feedback/{id}/vote
type VoteRequest struct {
	Vote string `json:"vote"`
}

// VoteResponse is returned by PATCH /feedback/{id}/vote
type VoteResponse struct {
	Detail     string `json:"detail"`
	FeedbackID string `json:"feedback_id"`
	Vote       string `json:"vote"`
}

// Feedback is a question/answer pair with an optional vote
type Feedback struct {
	ID           string    `json:"id" yaml:"id"`
	QuestionID   *string   `json:"question_id,omitempty" yaml:"question_id,omitempty"`
	AnswerID     string    `json:"answer_id" yaml:"answer_id"`
	QuestionText string    `json:"question_text" yaml:"question_text"`
	AnswerText   string    `json:"answer_text" yaml:"answer_text"`
	Vote         *string   `json:"vote" yaml:"vote"`
	UserID       *string   `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	Model        *string   `json:"model,omitempty" yaml:"model,omitempty"`
	Timestamp    time.Time `json:"ts" yaml:"ts"`
	UserEmail    string    `json:"user_email,omitempty" yaml:"user_email,omitempty"`
	UserName     string    `json:"user_name,omitempty" yaml:"user_name,omitempty"`
}

// SimilarRequest is the body of POST /similar/analyze
type SimilarRequest struct {
	Query            string `json:"query"`
	TopN             int    `json:"topn"`
	IncludeSummaries bool   `json:"include_summaries"`
}

// CaseItem is one similar court decision
type CaseItem struct {
	DocID           string  `json:"doc_id"`
	DavaTuru        *string `json:"dava_turu"`
	Sonuc           *string `json:"sonuc"`
	Gerekce         *string `json:"gerekce"`
	Karar           *string `json:"karar"`
	Hikaye          *string `json:"hikaye"`
	KararMetni      *string `json:"karar_metni,omitempty"`
	SimilarityScore float64 `json:"similarity_score"`
	Source          string  `json:"source"`
}

// LawItem is one related statute article
type LawItem struct {
	LawName        string  `json:"law_name"`
	ArticleNo      string  `json:"article_no"`
	RelevanceScore float64 `json:"relevance_score"`
}

// SimilarResponse is returned by POST /similar/analyze
type SimilarResponse struct {
	Query           string     `json:"query"`
	SimilarCases    []CaseItem `json:"similar_cases"`
	RelatedLaws     []LawItem  `json:"related_laws"`
	TotalCasesFound int        `json:"total_cases_found"`
	Timestamp       time.Time  `json:"timestamp"`
}
