package config

import (
	"context"
	"os"
	"time"
)

// WatchRooms reloads rooms.yaml on change and calls onUpdate with the latest
// registry. It performs an initial load before entering the watch loop; files
// that fail to load are skipped and reported through onError when set.
func WatchRooms(ctx context.Context, path string, interval time.Duration, onUpdate func(*RoomsConfig), onError func(error)) error {
	if path == "" {
		path = "configs/rooms.yaml"
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}

	cfg, err := LoadRooms(path)
	if err != nil {
		return err
	}
	if onUpdate != nil {
		onUpdate(cfg)
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	lastMod := info.ModTime()

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				info, err := os.Stat(path)
				if err != nil {
					continue // transient errors
				}
				if !info.ModTime().After(lastMod) {
					continue
				}
				lastMod = info.ModTime()
				cfg, err := LoadRooms(path)
				if err != nil {
					if onError != nil {
						onError(err)
					}
					continue
				}
				if onUpdate != nil {
					onUpdate(cfg)
				}
			}
		}
	}()

	return nil
}
