package goBlade

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/MrEthical07/goBlade/access"
	"github.com/MrEthical07/goBlade/blade"
	"github.com/MrEthical07/goBlade/store"
)

// ProfileFetcher loads the profile and access codes for a fresh token.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, accessToken string) (store.UserProfile, []string, error)
}

type ProfileFetcherFunc func(ctx context.Context, accessToken string) (store.UserProfile, []string, error)

func (f ProfileFetcherFunc) FetchProfile(ctx context.Context, accessToken string) (store.UserProfile, []string, error) {
	return f(ctx, accessToken)
}

// DefaultAvatar is the avatar of the built-in profile.
const DefaultAvatar = "https://unpkg.com/@vbenjs/static-source@0.1.7/source/avatar-v1.webp"

// StaticProfileFetcher grants every signed-in user the same administrator
// profile and the wildcard code. It never calls the server.
type StaticProfileFetcher struct{}

func (StaticProfileFetcher) FetchProfile(context.Context, string) (store.UserProfile, []string, error) {
	return store.UserProfile{
		UserID:   "1",
		Username: "admin",
		RealName: "Admin",
		Avatar:   DefaultAvatar,
		Roles:    []string{"super"},
		HomePath: "/dashboard",
	}, []string{access.Wildcard}, nil
}

// ProfileAPI is the subset of [blade.Client] used by [RemoteProfileFetcher].
type ProfileAPI interface {
	UserInfo(ctx context.Context, accessToken string) (blade.UserInfo, error)
	AccessCodes(ctx context.Context, accessToken string) ([]string, error)
}

// RemoteProfileFetcher asks the server for the profile and the codes in
// parallel. Either failing fails the fetch.
type RemoteProfileFetcher struct {
	API ProfileAPI
}

func (f RemoteProfileFetcher) FetchProfile(ctx context.Context, accessToken string) (store.UserProfile, []string, error) {
	if f.API == nil {
		return store.UserProfile{}, nil, errors.New("profile API is not configured")
	}

	var (
		info  blade.UserInfo
		codes []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		info, err = f.API.UserInfo(gctx, accessToken)
		return err
	})
	g.Go(func() error {
		var err error
		codes, err = f.API.AccessCodes(gctx, accessToken)
		return err
	})
	if err := g.Wait(); err != nil {
		return store.UserProfile{}, nil, err
	}

	return store.UserProfile{
		UserID:   info.UserID,
		Username: info.Username,
		RealName: info.RealName,
		Avatar:   info.Avatar,
		Roles:    info.Roles,
		HomePath: info.HomePath,
	}, codes, nil
}
