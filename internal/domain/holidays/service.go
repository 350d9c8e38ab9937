package holidays

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

type Service struct {
	Store StoreAPI
	Now   func() time.Time
}

func NewService(store StoreAPI) *Service {
	return &Service{Store: store, Now: time.Now}
}

func (s *Service) IsHoliday(ctx context.Context, date time.Time) (bool, error) {
	day := Day(date)
	list, err := s.Store.List(ctx, day, day)
	if err != nil {
		return false, err
	}
	return len(list) > 0, nil
}

// Calendar loads every holiday in [from, to] with a single store query.
func (s *Service) Calendar(ctx context.Context, from, to time.Time) (Set, error) {
	list, err := s.Store.List(ctx, Day(from), Day(to))
	if err != nil {
		return nil, err
	}
	return NewSet(list), nil
}

func (s *Service) Between(ctx context.Context, from, to time.Time) ([]Holiday, error) {
	return s.Store.List(ctx, Day(from), Day(to))
}

func (s *Service) List(ctx context.Context, year *int) ([]Holiday, error) {
	var from, to time.Time
	if year != nil {
		from = time.Date(*year, time.January, 1, 0, 0, 0, 0, time.UTC)
		to = time.Date(*year, time.December, 31, 0, 0, 0, 0, time.UTC)
	}
	return s.Store.List(ctx, from, to)
}

func validateCreate(in CreateInput) (CreateInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	switch {
	case in.Name == "":
		return in, ErrNameRequired
	case utf8.RuneCountInString(in.Name) > MaxNameLength:
		return in, ErrNameTooLong
	case utf8.RuneCountInString(in.Description) > MaxDescriptionLength:
		return in, ErrDescTooLong
	case in.Date.IsZero():
		return in, ErrDateRequired
	}
	if in.Category == "" {
		in.Category = CategoryCompany
	}
	in.Date = Day(in.Date)
	return in, nil
}

func (s *Service) Create(ctx context.Context, actorID string, in CreateInput) (Holiday, error) {
	in, err := validateCreate(in)
	if err != nil {
		return Holiday{}, err
	}
	now := s.Now().UTC()
	h := Holiday{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Date:        in.Date,
		Category:    in.Category,
		Description: in.Description,
		CreatedBy:   actorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Store.Create(ctx, h); err != nil {
		return Holiday{}, err
	}
	return h, nil
}

func (s *Service) Delete(ctx context.Context, id string) (Holiday, error) {
	return s.Store.Delete(ctx, id)
}

// ImportNational creates the region's public holidays for year, skipping taken dates.
func (s *Service) ImportNational(ctx context.Context, actorID, region string, year int) ([]Holiday, error) {
	inputs, err := NationalHolidays(region, year)
	if err != nil {
		return nil, err
	}
	var created []Holiday
	for _, in := range inputs {
		h, err := s.Create(ctx, actorID, in)
		if errors.Is(err, ErrDuplicateDate) {
			continue
		}
		if err != nil {
			return created, err
		}
		created = append(created, h)
	}
	return created, nil
}
