package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hazadus/go-boombox/internal/metadata"
	"github.com/hazadus/go-boombox/internal/utils"
)

// createListCommand создает команду list с привязкой к экземпляру приложения
func (app *Application) createListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the tracks of the playlist",
		Long:  `Display the playlist with tag metadata read from local files.`,
		Run: func(_ *cobra.Command, _ []string) {
			app.listTracks()
		},
	}
}

func (app *Application) listTracks() {
	extractor := metadata.NewExtractor(app.newResolver())
	tracks := app.Playlist.Tracks()

	fmt.Printf("📻 Треков в плейлисте: %d\n\n", len(tracks))

	// Выводим заголовок таблицы
	fmt.Printf("%-4s %-24s %-30s %-20s %-12s %-10s %s\n",
		"№", "Исполнитель", "Название", "Альбом", "Длительность", "Размер", "Источник")
	fmt.Println(strings.Repeat("-", 130))

	for i, track := range tracks {
		info := extractor.Describe(track)

		duration := "N/A"
		if info.Duration > 0 {
			duration = utils.FormatDuration(info.Duration)
		}
		size := "N/A"
		if info.Local {
			size = utils.FormatSize(info.Size)
		}

		fmt.Printf("%-4d %-24s %-30s %-20s %-12s %-10s %s\n",
			i+1,
			utils.TruncateString(info.Artist, 22),
			utils.TruncateString(info.Title, 28),
			utils.TruncateString(info.Album, 18),
			duration,
			size,
			track.URL)
	}

	fmt.Println()
	fmt.Println("💡 Используйте 'boombox play [№]' для воспроизведения трека")
}
