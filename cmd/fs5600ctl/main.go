package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/nmoore/fs5600/block"
	"github.com/nmoore/fs5600/fsys"
	"github.com/nmoore/fs5600/presets"
)

func main() {
	app := cli.App{
		Usage: "Manage fs5600 disk images",
		Commands: []*cli.Command{
			{
				Name:      "format",
				Usage:     "Create or wipe an image",
				Action:    formatImage,
				ArgsUsage: "IMAGE_FILE",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "preset", Usage: "named size preset, e.g. \"reference\""},
					&cli.Uint64Flag{Name: "blocks", Usage: "total block count, overrides --preset"},
				},
			},
			{
				Name:      "fsck",
				Usage:     "Check an image for consistency",
				Action:    fsckImage,
				ArgsUsage: "IMAGE_FILE",
			},
			{
				Name:      "ls",
				Usage:     "List a directory",
				Action:    listDirectory,
				ArgsUsage: "IMAGE_FILE PATH",
			},
			{
				Name:      "cat",
				Usage:     "Print a file's contents",
				Action:    catFile,
				ArgsUsage: "IMAGE_FILE PATH",
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("fatal error: %s", err.Error())
	}
}

func openImage(path string, totalBlocks uint32) (*block.Device, *os.File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return nil, nil, err
	}
	return block.NewDevice(block.NewStreamPrimitives(f), totalBlocks), f, nil
}

func formatImage(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("usage: %s format [--preset NAME | --blocks N] IMAGE_FILE", os.Args[0])
	}

	totalBlocks := uint32(c.Uint64("blocks"))
	if totalBlocks == 0 {
		slug := c.String("preset")
		if slug == "" {
			slug = "reference"
		}
		preset, err := presets.Lookup(slug)
		if err != nil {
			return err
		}
		totalBlocks = preset.TotalBlocks
	}

	path := c.Args().Get(0)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Truncate(int64(totalBlocks) * block.BlockSize); err != nil {
		return err
	}

	dev := block.NewDevice(block.NewStreamPrimitives(f), totalBlocks)
	if _, derr := fsys.Format(dev); derr != nil {
		return derr
	}

	fmt.Printf("formatted %s with %d blocks\n", path, totalBlocks)
	return nil
}

func mountImageArg(c *cli.Context) (*fsys.FileSystem, *os.File, error) {
	if c.Args().Len() < 1 {
		return nil, nil, fmt.Errorf("usage: %s %s IMAGE_FILE [PATH]", os.Args[0], c.Command.Name)
	}

	path := c.Args().Get(0)
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, err
	}
	totalBlocks := uint32(info.Size() / block.BlockSize)

	dev, f, err := openImage(path, totalBlocks)
	if err != nil {
		return nil, nil, err
	}

	fs, merr := fsys.Mount(dev)
	if merr != nil {
		f.Close()
		return nil, nil, merr
	}
	return fs, f, nil
}

func fsckImage(c *cli.Context) error {
	fs, f, err := mountImageArg(c)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := fsys.Check(fs); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return cli.Exit("fsck found inconsistencies", 1)
	}

	fmt.Println("fsck: no inconsistencies found")
	return nil
}

func listDirectory(c *cli.Context) error {
	fs, f, err := mountImageArg(c)
	if err != nil {
		return err
	}
	defer f.Close()

	path := "/"
	if c.Args().Len() >= 2 {
		path = c.Args().Get(1)
	}

	if err := fs.Readdir(path, func(name string, stat fsys.FileStat) bool {
		fmt.Printf("%10d  %s\n", stat.Size, name)
		return false
	}); err != nil {
		return err
	}
	return nil
}

func catFile(c *cli.Context) error {
	fs, f, err := mountImageArg(c)
	if err != nil {
		return err
	}
	defer f.Close()

	if c.Args().Len() < 2 {
		return fmt.Errorf("usage: %s cat IMAGE_FILE PATH", os.Args[0])
	}
	path := c.Args().Get(1)

	stat, statErr := fs.Getattr(path)
	if statErr != nil {
		return statErr
	}

	buf := make([]byte, stat.Size)
	n, readErr := fs.Read(path, 0, buf)
	if readErr != nil {
		return readErr
	}

	_, err = os.Stdout.Write(buf[:n])
	return err
}
