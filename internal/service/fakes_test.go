package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/evalhub/gradehub-api/internal/models"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

type fakeHomeworkRepo struct {
	homeworks map[string]*models.Homework
	nextID    uint
}

func newFakeHomeworkRepo() *fakeHomeworkRepo {
	return &fakeHomeworkRepo{homeworks: map[string]*models.Homework{}}
}

func (f *fakeHomeworkRepo) List(ctx context.Context) ([]models.Homework, error) {
	names := make([]string, 0, len(f.homeworks))
	for name := range f.homeworks {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]models.Homework, 0, len(names))
	for _, name := range names {
		out = append(out, *f.homeworks[name])
	}
	return out, nil
}

func (f *fakeHomeworkRepo) GetByName(ctx context.Context, name string) (models.Homework, error) {
	homework, ok := f.homeworks[name]
	if !ok {
		return models.Homework{}, gorm.ErrRecordNotFound
	}
	return *homework, nil
}

func (f *fakeHomeworkRepo) Create(ctx context.Context, homework *models.Homework) error {
	f.nextID++
	homework.ID = f.nextID
	stored := *homework
	f.homeworks[homework.Name] = &stored
	return nil
}

func (f *fakeHomeworkRepo) Update(ctx context.Context, homework *models.Homework) error {
	stored := *homework
	f.homeworks[homework.Name] = &stored
	return nil
}

func (f *fakeHomeworkRepo) Delete(ctx context.Context, name string) error {
	if _, ok := f.homeworks[name]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.homeworks, name)
	return nil
}

type fakeCheckRepo struct {
	homeworks *fakeHomeworkRepo
	nextID    uint
}

func newFakeCheckRepo(homeworks *fakeHomeworkRepo) *fakeCheckRepo {
	return &fakeCheckRepo{homeworks: homeworks}
}

func (f *fakeCheckRepo) find(homeworkID uint) *models.Homework {
	for _, homework := range f.homeworks.homeworks {
		if homework.ID == homeworkID {
			return homework
		}
	}
	return nil
}

func (f *fakeCheckRepo) ListByHomework(ctx context.Context, homeworkID uint) ([]models.CheckSpec, error) {
	homework := f.find(homeworkID)
	if homework == nil {
		return nil, nil
	}
	return append([]models.CheckSpec(nil), homework.Checks...), nil
}

func (f *fakeCheckRepo) GetByName(ctx context.Context, homeworkID uint, name string) (models.CheckSpec, error) {
	homework := f.find(homeworkID)
	if homework != nil {
		for _, check := range homework.Checks {
			if check.Name == name {
				return check, nil
			}
		}
	}
	return models.CheckSpec{}, gorm.ErrRecordNotFound
}

func (f *fakeCheckRepo) Create(ctx context.Context, check *models.CheckSpec) error {
	homework := f.find(check.HomeworkID)
	if homework == nil {
		return gorm.ErrRecordNotFound
	}
	f.nextID++
	check.ID = f.nextID
	homework.Checks = append(homework.Checks, *check)
	return nil
}

func (f *fakeCheckRepo) Update(ctx context.Context, check *models.CheckSpec) error {
	homework := f.find(check.HomeworkID)
	if homework == nil {
		return gorm.ErrRecordNotFound
	}
	for i, existing := range homework.Checks {
		if existing.Name == check.Name {
			homework.Checks[i] = *check
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeCheckRepo) Delete(ctx context.Context, homeworkID uint, name string) error {
	homework := f.find(homeworkID)
	if homework == nil {
		return gorm.ErrRecordNotFound
	}
	for i, check := range homework.Checks {
		if check.Name == name {
			homework.Checks = append(homework.Checks[:i], homework.Checks[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeCheckRepo) DeleteByHomework(ctx context.Context, homeworkID uint) error {
	if homework := f.find(homeworkID); homework != nil {
		homework.Checks = nil
	}
	return nil
}

func (f *fakeCheckRepo) NextPosition(ctx context.Context, homeworkID uint) (int, error) {
	homework := f.find(homeworkID)
	if homework == nil || len(homework.Checks) == 0 {
		return 0, nil
	}
	max := homework.Checks[0].Position
	for _, check := range homework.Checks {
		if check.Position > max {
			max = check.Position
		}
	}
	return max + 1, nil
}

type fakeSubmissionRepo struct {
	rows []models.GradedSubmission
}

func (f *fakeSubmissionRepo) Create(ctx context.Context, submission *models.GradedSubmission) error {
	f.rows = append(f.rows, *submission)
	return nil
}

func (f *fakeSubmissionRepo) GetByID(ctx context.Context, id string) (models.GradedSubmission, error) {
	for _, row := range f.rows {
		if row.ID == id {
			return row, nil
		}
	}
	return models.GradedSubmission{}, gorm.ErrRecordNotFound
}

func (f *fakeSubmissionRepo) ListByHomework(ctx context.Context, homeworkID uint) ([]models.GradedSubmission, error) {
	var out []models.GradedSubmission
	for _, row := range f.rows {
		if row.HomeworkID == homeworkID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeSubmissionRepo) ListByLearner(ctx context.Context, homeworkID uint, learnerID string) ([]models.GradedSubmission, error) {
	var out []models.GradedSubmission
	for _, row := range f.rows {
		if row.HomeworkID == homeworkID && row.LearnerID == learnerID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeSubmissionRepo) CountByHomework(ctx context.Context, homeworkID uint) (int64, error) {
	rows, _ := f.ListByHomework(ctx, homeworkID)
	return int64(len(rows)), nil
}

func (f *fakeSubmissionRepo) DeleteByHomework(ctx context.Context, homeworkID uint) error {
	kept := f.rows[:0]
	for _, row := range f.rows {
		if row.HomeworkID != homeworkID {
			kept = append(kept, row)
		}
	}
	f.rows = kept
	return nil
}

type fakeLedgerRepo struct {
	entries map[string]*models.LedgerEntry
	nextID  uint
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{entries: map[string]*models.LedgerEntry{}}
}

func ledgerKey(homeworkID uint, learnerID string) string {
	return fmt.Sprintf("%d|%s", homeworkID, learnerID)
}

func (f *fakeLedgerRepo) Get(ctx context.Context, homeworkID uint, learnerID string) (models.LedgerEntry, error) {
	entry, ok := f.entries[ledgerKey(homeworkID, learnerID)]
	if !ok {
		return models.LedgerEntry{}, gorm.ErrRecordNotFound
	}
	return *entry, nil
}

func (f *fakeLedgerRepo) ListByHomework(ctx context.Context, homeworkID uint) ([]models.LedgerEntry, error) {
	var out []models.LedgerEntry
	for _, entry := range f.entries {
		if entry.HomeworkID == homeworkID {
			out = append(out, *entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LearnerID < out[j].LearnerID })
	return out, nil
}

func (f *fakeLedgerRepo) Save(ctx context.Context, entry *models.LedgerEntry) error {
	if entry.ID == 0 {
		f.nextID++
		entry.ID = f.nextID
	}
	stored := *entry
	f.entries[ledgerKey(entry.HomeworkID, entry.LearnerID)] = &stored
	return nil
}

func (f *fakeLedgerRepo) DeleteByHomework(ctx context.Context, homeworkID uint) error {
	for key, entry := range f.entries {
		if entry.HomeworkID == homeworkID {
			delete(f.entries, key)
		}
	}
	return nil
}
