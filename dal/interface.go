package dal

import (
	"context"

	"github.com/ndau/simple-dao/dao"
	"github.com/ndau/simple-dao/models"
)

//go:generate mockgen -destination=./mocks/mock_repo.go -package=mocks github.com/ndau/simple-dao/dal Repo
type Repo interface {
	Close()
	Migrate(ctx context.Context) error
	ListAccount(ctx context.Context) ([]models.Account, error)
	LoadSnapshot(ctx context.Context) (*dao.Snapshot, error)
	Commit(ctx context.Context, c *dao.Change) error
}
