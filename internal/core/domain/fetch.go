package domain

type FetchStatus string

const (
	FetchIdle    FetchStatus = "idle"
	FetchLoading FetchStatus = "loading"
	FetchSuccess FetchStatus = "success"
	FetchError   FetchStatus = "error"
)

// FetchState is the observable state of one remote read. Payload keeps the
// last successful value while a new cycle is loading.
type FetchState[T any] struct {
	Status     FetchStatus `json:"status"`
	Payload    T           `json:"payload"`
	Err        error       `json:"-"`
	Message    string      `json:"error,omitempty"`
	RetryCount int         `json:"retry_count"`
}

func (s FetchState[T]) Loading() bool {
	return s.Status == FetchLoading
}

// PageState tracks the history pager. TotalPages only ever comes from the
// server.
type PageState struct {
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
}

func NewPageState() PageState {
	return PageState{CurrentPage: 1, TotalPages: 1}
}

func (p PageState) Contains(page int) bool {
	return page >= 1 && page <= p.TotalPages
}
