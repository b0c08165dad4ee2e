package dashboard_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"homedash/internal/dashboard"
	"homedash/internal/models"
)

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		in      string
		want    dashboard.Format
		wantErr bool
	}{
		"empty defaults to json": {in: "", want: dashboard.FormatJSON},
		"json":                   {in: "JSON", want: dashboard.FormatJSON},
		"yaml":                   {in: "yaml", want: dashboard.FormatYAML},
		"yml":                    {in: "yml", want: dashboard.FormatYAML},
		"toml":                   {in: "toml", wantErr: true},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := dashboard.ParseFormat(tc.in)
			if tc.wantErr {
				require.ErrorIs(t, err, dashboard.ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestExportStampsMetadata(t *testing.T) {
	t.Parallel()

	store, _, mock := newStore(t)

	data, err := store.Export(dashboard.FormatJSON)
	require.NoError(t, err)

	var bundle models.Bundle
	require.NoError(t, json.Unmarshal(data, &bundle))
	require.Equal(t, models.ConfigVersion, bundle.Metadata.ConfigVersion)
	require.Equal(t, models.Timestamp(mock.Now()), bundle.Metadata.LastExport)
	require.Len(t, bundle.Apps, len(dashboard.DefaultApps()))

	data, err = store.Export(dashboard.FormatYAML)
	require.NoError(t, err)
	var fromYAML models.Bundle
	require.NoError(t, yaml.Unmarshal(data, &fromYAML))
	require.Equal(t, bundle.Apps, fromYAML.Apps)

	_, err = store.Export("xml")
	require.ErrorIs(t, err, dashboard.ErrUnsupportedFormat)
}

func TestImportReplacesConfiguration(t *testing.T) {
	t.Parallel()

	for _, format := range []dashboard.Format{dashboard.FormatJSON, dashboard.FormatYAML} {
		format := format
		t.Run(string(format), func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			source, _, _ := newStore(t)
			_, err := source.AddApp(ctx, dashboard.AppInput{Name: "Pi-hole", URL: "http://10.0.0.53/admin"})
			require.NoError(t, err)
			_, err = source.UpdateSettings(ctx, dashboard.SettingsPatch{Title: ptr("Imported")})
			require.NoError(t, err)

			data, err := source.Export(format)
			require.NoError(t, err)

			target, backend, mock := newStore(t)
			changes, cancel := target.Subscribe()
			defer cancel()

			bundle, err := target.Import(ctx, data, format)
			require.NoError(t, err)
			require.Equal(t, models.Timestamp(mock.Now()), bundle.Metadata.LastImport)

			require.Equal(t, source.Apps(), target.Apps())
			require.Equal(t, "Imported", target.Settings().Title)

			persisted, found, err := backend.LoadApps(ctx)
			require.NoError(t, err)
			require.True(t, found)
			require.Equal(t, source.Apps(), persisted)

			require.Equal(t, dashboard.ChangeApps, (<-changes).Kind)
			require.Equal(t, dashboard.ChangeSettings, (<-changes).Kind)
		})
	}
}

func TestImportRejectsInvalidBundles(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		data    string
		format  dashboard.Format
		wantErr error
	}{
		"malformed json": {
			data:    `{"apps": [`,
			format:  dashboard.FormatJSON,
			wantErr: dashboard.ErrInvalidConfig,
		},
		"missing dashboard": {
			data:    `{"apps": []}`,
			format:  dashboard.FormatJSON,
			wantErr: dashboard.ErrInvalidConfig,
		},
		"app without url": {
			data: `{"apps": [{"id": "a", "name": "A", "description": "", "icon": "", "accentColor": "", "specification": {}}],
				"dashboard": {"title": "t", "subtitle": "s", "footer": "f", "networkCheckEnabled": true}}`,
			format:  dashboard.FormatJSON,
			wantErr: dashboard.ErrInvalidConfig,
		},
		"duplicate ids": {
			data: `{"apps": [
				{"id": "a", "name": "A", "description": "", "icon": "", "accentColor": "", "url": "", "specification": {}},
				{"id": "a", "name": "B", "description": "", "icon": "", "accentColor": "", "url": "", "specification": {}}],
				"dashboard": {"title": "t", "subtitle": "s", "footer": "f", "networkCheckEnabled": true}}`,
			format:  dashboard.FormatJSON,
			wantErr: dashboard.ErrInvalidConfig,
		},
		"flag is not a boolean": {
			data:    "apps: []\ndashboard:\n  title: t\n  subtitle: s\n  footer: f\n  networkCheckEnabled: maybe\n",
			format:  dashboard.FormatYAML,
			wantErr: dashboard.ErrInvalidConfig,
		},
		"unknown format": {
			data:    `{}`,
			format:  "ini",
			wantErr: dashboard.ErrUnsupportedFormat,
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			store, _, _ := newStore(t)
			before := store.Apps()

			_, err := store.Import(context.Background(), []byte(tc.data), tc.format)
			require.ErrorIs(t, err, tc.wantErr)
			require.Equal(t, before, store.Apps())
			require.Equal(t, "Network Dashboard", store.Settings().Title)
		})
	}
}

func TestImportAcceptsEmptyAppList(t *testing.T) {
	t.Parallel()

	store, _, _ := newStore(t)
	_, err := store.Import(context.Background(),
		[]byte(`{"apps": [], "dashboard": {"title": "t", "subtitle": "s", "footer": "f", "networkCheckEnabled": false}}`),
		dashboard.FormatJSON)
	require.NoError(t, err)
	require.Empty(t, store.Apps())
	require.False(t, store.MonitoringEnabled())
	require.NotNil(t, store.Settings().Metadata)
}
