package sqlite_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"github.com/matiasleandrokruk/healthassist/internal/domain/insurance"
	"github.com/matiasleandrokruk/healthassist/internal/infra/sqlite"
)

const concurrentReaders = 64

// lookupSnapshot is one round of the three lookups a member session performs.
type lookupSnapshot struct {
	Claim     *insurance.ClaimDetails
	Benefits  []insurance.PlanBenefit
	Providers []insurance.ProviderDetails
}

func takeSnapshot(ctx context.Context, svc *insurance.Service) (lookupSnapshot, error) {
	claim, err := svc.GetClaimDetails(ctx, "CLM123456")
	if err != nil {
		return lookupSnapshot{}, fmt.Errorf("GetClaimDetails: %w", err)
	}
	benefits, err := svc.GetPlanBenefits(ctx, "PLAN001")
	if err != nil {
		return lookupSnapshot{}, fmt.Errorf("GetPlanBenefits: %w", err)
	}
	providers, err := svc.SearchProviders(ctx, insurance.ProviderSearchInput{ZipCode: "10001"})
	if err != nil {
		return lookupSnapshot{}, fmt.Errorf("SearchProviders: %w", err)
	}
	if _, err := svc.GetClaimDetails(ctx, "CLM000000"); !errors.Is(err, insurance.ErrNotFound) {
		return lookupSnapshot{}, fmt.Errorf("GetClaimDetails(CLM000000) error = %v; want ErrNotFound", err)
	}
	return lookupSnapshot{Claim: claim, Benefits: benefits, Providers: providers}, nil
}

func TestService_ConcurrentReads(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ds := mustBuiltin(t)

	want, err := takeSnapshot(ctx, insurance.NewService(ds))
	if err != nil {
		t.Fatalf("baseline snapshot: %v", err)
	}

	cases := []struct {
		name string
		repo func(t *testing.T) insurance.Repository
	}{
		{
			name: "builtin dataset",
			repo: func(*testing.T) insurance.Repository { return ds },
		},
		{
			name: "in-memory mirror",
			repo: func(t *testing.T) insurance.Repository {
				_, repo := mustOpenMirror(t)
				return repo
			},
		},
		{
			name: "file mirror",
			repo: func(t *testing.T) insurance.Repository {
				db, repo, err := sqlite.OpenMirror(ctx, filepath.Join(t.TempDir(), "mirror.db"), ds)
				if err != nil {
					t.Fatalf("OpenMirror() error = %v", err)
				}
				t.Cleanup(func() { _ = db.Close() })
				return repo
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			svc := insurance.NewService(tc.repo(t))

			var wg sync.WaitGroup
			errs := make(chan error, concurrentReaders)
			for i := 0; i < concurrentReaders; i++ {
				wg.Add(1)
				go func(reader int) {
					defer wg.Done()
					got, err := takeSnapshot(ctx, svc)
					if err != nil {
						errs <- fmt.Errorf("reader %d: %w", reader, err)
						return
					}
					if !reflect.DeepEqual(got, want) {
						errs <- fmt.Errorf("reader %d: snapshot = %+v; want %+v", reader, got, want)
					}
				}(i)
			}
			wg.Wait()
			close(errs)

			for err := range errs {
				t.Error(err)
			}
		})
	}
}
