package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildSaveDialogDefaults(t *testing.T) {
	tests := []struct {
		name              string
		fileName          string
		extension         string
		wantDefaultName   string
		wantFilterPattern string
	}{
		{
			name:              "ファイル名が空なら geonotes を補完",
			fileName:          "",
			extension:         "json",
			wantDefaultName:   "geonotes.json",
			wantFilterPattern: "*.json",
		},
		{
			name:              "空白のみのファイル名も補完",
			fileName:          "   ",
			extension:         "json",
			wantDefaultName:   "geonotes.json",
			wantFilterPattern: "*.json",
		},
		{
			name:              "末尾に拡張子を追加",
			fileName:          "backup",
			extension:         "json",
			wantDefaultName:   "backup.json",
			wantFilterPattern: "*.json",
		},
		{
			name:              "拡張子は大文字小文字を区別せず重複判定する",
			fileName:          "backup.JSON",
			extension:         "json",
			wantDefaultName:   "backup.JSON",
			wantFilterPattern: "*.json",
		},
		{
			name:              "拡張子なし",
			fileName:          "backup",
			extension:         "",
			wantDefaultName:   "backup",
			wantFilterPattern: "*.*",
		},
		{
			name:              "先頭ドットの拡張子指定も受け入れる",
			fileName:          "backup",
			extension:         ".yaml",
			wantDefaultName:   "backup.yaml",
			wantFilterPattern: "*.yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotName, gotPattern := buildSaveDialogDefaults(tt.fileName, tt.extension)
			assert.Equal(t, tt.wantDefaultName, gotName)
			assert.Equal(t, tt.wantFilterPattern, gotPattern)
		})
	}
}
