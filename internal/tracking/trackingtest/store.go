// Package trackingtest provides an in-memory issue store for tests.
package trackingtest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/iobroker-bot-orga/check-tasks/internal/tracking"
)

// Call records one mutating store call
type Call struct {
	Op     string
	Repo   string
	Number int
	Title  string
	Text   string
}

// Store is an in-memory tracking.Store
type Store struct {
	mu       sync.Mutex
	next     int
	issues   map[string]map[int]*tracking.Issue
	comments map[string]map[int][]string
	Calls    []Call

	// FailOn makes the named operation fail, e.g. "create".
	FailOn map[string]error
}

// NewStore creates an empty store whose first issue gets number 1
func NewStore() *Store {
	return &Store{
		next:     1,
		issues:   make(map[string]map[int]*tracking.Issue),
		comments: make(map[string]map[int][]string),
		FailOn:   make(map[string]error),
	}
}

// Seed adds an existing issue without recording a call
func (s *Store) Seed(repo tracking.Repository, issue tracking.Issue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.issues[repo.String()] == nil {
		s.issues[repo.String()] = make(map[int]*tracking.Issue)
	}
	copied := issue
	s.issues[repo.String()][issue.Number] = &copied
	if issue.Number >= s.next {
		s.next = issue.Number + 1
	}
}

// Issue returns a copy of the stored issue
func (s *Store) Issue(repo tracking.Repository, number int) (tracking.Issue, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	issue, ok := s.issues[repo.String()][number]
	if !ok {
		return tracking.Issue{}, false
	}
	return *issue, true
}

// Comments returns the comments posted on an issue
func (s *Store) Comments(repo tracking.Repository, number int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.comments[repo.String()][number]...)
}

// OpenIssues returns the numbers of all open issues in a repository
func (s *Store) OpenIssues(repo tracking.Repository) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var numbers []int
	for n, issue := range s.issues[repo.String()] {
		if issue.Open {
			numbers = append(numbers, n)
		}
	}
	sort.Ints(numbers)
	return numbers
}

// Mutations returns the number of recorded mutating calls
func (s *Store) Mutations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Calls)
}

func (s *Store) ListOpen(_ context.Context, repo tracking.Repository, match tracking.TitleMatcher) ([]tracking.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.FailOn["list"]; err != nil {
		return nil, err
	}
	var result []tracking.Issue
	for _, issue := range s.issues[repo.String()] {
		if issue.Open && (match == nil || match(issue.Title)) {
			result = append(result, *issue)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Number < result[j].Number })
	return result, nil
}

func (s *Store) Get(_ context.Context, repo tracking.Repository, number int) (*tracking.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	issue, ok := s.issues[repo.String()][number]
	if !ok {
		return nil, fmt.Errorf("issue #%d not found", number)
	}
	copied := *issue
	return &copied, nil
}

func (s *Store) Create(_ context.Context, repo tracking.Repository, title, body string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.FailOn["create"]; err != nil {
		return 0, err
	}
	number := s.next
	s.next++
	if s.issues[repo.String()] == nil {
		s.issues[repo.String()] = make(map[int]*tracking.Issue)
	}
	s.issues[repo.String()][number] = &tracking.Issue{Number: number, Title: title, Body: body, Open: true}
	s.Calls = append(s.Calls, Call{Op: "create", Repo: repo.String(), Number: number, Title: title, Text: body})
	return number, nil
}

func (s *Store) Update(_ context.Context, repo tracking.Repository, number int, title, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.FailOn["update"]; err != nil {
		return err
	}
	issue, ok := s.issues[repo.String()][number]
	if !ok {
		return fmt.Errorf("issue #%d not found", number)
	}
	issue.Title = title
	issue.Body = body
	s.Calls = append(s.Calls, Call{Op: "update", Repo: repo.String(), Number: number, Title: title, Text: body})
	return nil
}

func (s *Store) Comment(_ context.Context, repo tracking.Repository, number int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.FailOn["comment"]; err != nil {
		return err
	}
	if s.comments[repo.String()] == nil {
		s.comments[repo.String()] = make(map[int][]string)
	}
	s.comments[repo.String()][number] = append(s.comments[repo.String()][number], text)
	s.Calls = append(s.Calls, Call{Op: "comment", Repo: repo.String(), Number: number, Text: text})
	return nil
}

func (s *Store) Close(_ context.Context, repo tracking.Repository, number int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.FailOn["close"]; err != nil {
		return err
	}
	issue, ok := s.issues[repo.String()][number]
	if !ok {
		return fmt.Errorf("issue #%d not found", number)
	}
	issue.Open = false
	s.Calls = append(s.Calls, Call{Op: "close", Repo: repo.String(), Number: number})
	return nil
}
