package postgres

import "screen-dev-assistant/internal/domain/repository"

var (
	_ repository.Transactor            = (*TxManager)(nil)
	_ repository.ScreenRepository      = (*ScreenRepository)(nil)
	_ repository.RequirementRepository = (*RequirementRepository)(nil)
	_ repository.JobRepository         = (*JobRepository)(nil)
	_ repository.TestRunRepository     = (*TestRunRepository)(nil)
)
