package main

import (
	"fmt"

	"github.com/utreexolabs/forest/accumulator"
)

type addCmd struct {
	app  *app
	Args struct {
		Leaves []string `positional-arg-name:"leaf" description:"strings to hash into leaves and add"`
	} `positional-args:"yes" required:"1"`
}

func (c *addCmd) Execute(_ []string) error {
	f, err := c.app.forestHandle()
	if err != nil {
		return err
	}

	adds := make([]accumulator.Leaf, len(c.Args.Leaves))
	for i, s := range c.Args.Leaves {
		adds[i] = accumulator.Leaf{Hash: accumulator.HashFromString(s)}
	}
	if _, err := f.Modify(adds, nil); err != nil {
		return err
	}
	return f.Commit()
}

type delCmd struct {
	app  *app
	Args struct {
		Leaves []string `positional-arg-name:"leaf" description:"strings to hash and delete"`
	} `positional-args:"yes" required:"1"`
}

func (c *delCmd) Execute(_ []string) error {
	f, err := c.app.forestHandle()
	if err != nil {
		return err
	}

	dels := make([]accumulator.Hash, len(c.Args.Leaves))
	for i, s := range c.Args.Leaves {
		dels[i] = accumulator.HashFromString(s)
	}
	if _, err := f.Modify(nil, dels); err != nil {
		return err
	}
	return f.Commit()
}

type commitCmd struct {
	app *app
}

func (c *commitCmd) Execute(_ []string) error {
	f, err := c.app.forestHandle()
	if err != nil {
		return err
	}
	return f.Commit()
}

type emptyCmd struct {
	app *app
}

func (c *emptyCmd) Execute(_ []string) error {
	f, err := c.app.forestHandle()
	if err != nil {
		return err
	}
	return f.Empty()
}

type statsCmd struct {
	app  *app
	Tree bool `long:"tree" short:"v" description:"also print the forest as ascii art"`
}

func (c *statsCmd) Execute(_ []string) error {
	f, err := c.app.forestHandle()
	if err != nil {
		return err
	}
	fmt.Println(f.Stats())
	for _, root := range f.GetRoots() {
		fmt.Printf("root: %x\n", root.Prefix())
	}
	if c.Tree {
		fmt.Print(f.ToString())
	}
	return nil
}
