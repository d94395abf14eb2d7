package testbed

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/anima/engine"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/model"
)

type TestGame struct {
	*engine.Game
}

type gameState struct {
	elapsed float64
	width   uint32
	height  uint32
}

// Triangle is the classic RGB triangle, wound clockwise in clip space.
var Triangle = []model.Vertex{
	{Position: mgl32.Vec2{0.0, -0.5}, Color: mgl32.Vec3{1.0, 0.0, 0.0}},
	{Position: mgl32.Vec2{0.5, 0.5}, Color: mgl32.Vec3{0.0, 1.0, 0.0}},
	{Position: mgl32.Vec2{-0.5, 0.5}, Color: mgl32.Vec3{0.0, 0.0, 1.0}},
}

func NewTestGame(config *engine.ApplicationConfig) *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: config,
			Vertices:          Triangle,
			State: &gameState{
				width:  config.StartWidth,
				height: config.StartHeight,
			},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnOnResize = tg.OnResize
	tg.FnShutdown = tg.Shutdown

	return tg
}

func (g *TestGame) state() *gameState {
	return g.State.(*gameState)
}

func (g *TestGame) Initialize() error {
	core.LogInfo("testbed initialized: drawing %d vertices", len(g.Vertices))
	return nil
}

func (g *TestGame) Update(deltaTime float64) error {
	g.state().elapsed += deltaTime
	return nil
}

func (g *TestGame) OnResize(width uint32, height uint32) error {
	s := g.state()
	core.LogDebug("testbed resized from %dx%d to %dx%d", s.width, s.height, width, height)
	s.width, s.height = width, height
	return nil
}

func (g *TestGame) Shutdown() error {
	core.LogInfo("testbed ran for %.2fs", g.state().elapsed)
	return nil
}
