package config

import (
	"errors"
	"reflect"
	"testing"

	"github.com/hartfelt/mediakeep/config/mocks"
	"github.com/spf13/viper"
	"go.uber.org/mock/gomock"
)

func TestNew(t *testing.T) {
	t.Run("fail to read in config", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		cu := mocks.NewMockConfigUnmarshaler(ctrl)

		wantErr := errors.New("expected testing error")
		cu.EXPECT().ConfigFileUsed().Times(1).Return("fake-config.yaml")
		cu.EXPECT().ReadInConfig().Times(1).Return(wantErr)
		c, err := New(cu)
		if err == nil {
			t.Errorf("TestNew() err = %v, want %v", err, wantErr)
		}

		wantConfig := Config{}
		if !reflect.DeepEqual(c, wantConfig) {
			t.Errorf("TestNew() config = %v, want %v", c, wantConfig)
		}
	})

	t.Run("success with file", func(t *testing.T) {
		cu := viper.New()
		cu.SetConfigFile("./testing/config.yaml")
		c, err := New(cu)
		if err != nil {
			t.Errorf("TestNew() err = %v, want %v", err, nil)
		}

		wantConfig := Config{
			TMDB: TMDB{
				Scheme:    "https",
				Host:      "my-host",
				ImageHost: "https://image.tmdb.org",
				APIKey:    "my-api-key",
			},
			Library: Library{
				Root: "/media",
			},
			Server: Server{
				Port: 8080,
			},
		}

		if !reflect.DeepEqual(c, wantConfig) {
			t.Errorf("TestNew() config = %+v, want %+v", c, wantConfig)
		}
	})

	t.Run("success without file", func(t *testing.T) {
		cu := viper.New()
		cu.SetConfigFile("")
		cu.SetDefault("tmdb.scheme", "https")
		cu.SetDefault("tmdb.host", "api.themoviedb.org")
		cu.SetDefault("tmdb.imageHost", "https://image.tmdb.org")
		cu.SetDefault("library.root", "/media")
		cu.SetDefault("server.port", 8080)
		c, err := New(cu)
		if err != nil {
			t.Errorf("TestNew() err = %v, want %v", err, nil)
		}

		wantConfig := Config{
			TMDB: TMDB{
				Scheme:    "https",
				Host:      "api.themoviedb.org",
				ImageHost: "https://image.tmdb.org",
			},
			Library: Library{
				Root: "/media",
			},
			Server: Server{
				Port: 8080,
			},
		}

		if !reflect.DeepEqual(c, wantConfig) {
			t.Errorf("TestNew() config = %+v, want %+v", c, wantConfig)
		}
	})

	t.Run("rejects invalid values", func(t *testing.T) {
		cu := viper.New()
		cu.SetConfigFile("")
		cu.SetDefault("tmdb.scheme", "gopher")
		cu.SetDefault("tmdb.host", "api.themoviedb.org")
		cu.SetDefault("tmdb.imageHost", "https://image.tmdb.org")
		cu.SetDefault("library.root", "/media")
		cu.SetDefault("server.port", 8080)
		_, err := New(cu)
		if err == nil {
			t.Error("TestNew() expected a validation error for scheme")
		}
	})
}
