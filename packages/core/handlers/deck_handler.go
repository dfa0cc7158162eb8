package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"rankbot-api/packages/core/models"
	"rankbot-api/packages/core/services"
)

type DeckHandler struct {
	deckService *services.DeckService
	catalogPath string
	logger      zerolog.Logger
}

func NewDeckHandler(deckService *services.DeckService, catalogPath string, logger zerolog.Logger) *DeckHandler {
	return &DeckHandler{
		deckService: deckService,
		catalogPath: catalogPath,
		logger:      logger.With().Str("handler", "deck").Logger(),
	}
}

// GetDecks lists the deck catalog
// @Summary List decks
// @Tags decks
// @Produce json
// @Param color query string false "Color identity, e.g. wubrg"
// @Success 200 {array} models.Deck
// @Router /decks [get]
func (h *DeckHandler) GetDecks(c *gin.Context) {
	decks, err := h.deckService.List(c.Request.Context(), c.Query("color"))
	if err != nil {
		respondError(c, h.logger, err, "Failed to retrieve decks")
		return
	}
	c.JSON(http.StatusOK, decks)
}

// GetDeck looks a deck up by any of its aliases
// @Summary Find deck by alias
// @Tags decks
// @Produce json
// @Param alias path string true "Deck name or alias"
// @Success 200 {object} models.Deck
// @Failure 404 {object} map[string]string
// @Router /decks/{alias} [get]
func (h *DeckHandler) GetDeck(c *gin.Context) {
	deck, err := h.deckService.Find(c.Request.Context(), c.Param("alias"))
	if err != nil {
		respondError(c, h.logger, err, "Failed to retrieve deck")
		return
	}
	c.JSON(http.StatusOK, deck)
}

// UpsertDeck adds or replaces a deck
// @Summary Add or replace a deck (owner)
// @Tags decks
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param deck body models.UpsertDeckRequest true "Deck"
// @Success 200 {object} models.Deck
// @Success 201 {object} models.Deck
// @Failure 400 {object} map[string]string
// @Router /decks [post]
func (h *DeckHandler) UpsertDeck(c *gin.Context) {
	var req models.UpsertDeckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	deck, created, err := h.deckService.Upsert(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err, "Failed to save deck")
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, deck)
}

// AddAliases adds nicknames to a deck
// @Summary Add deck aliases (owner)
// @Tags decks
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param alias path string true "Deck name or alias"
// @Param body body models.AddAliasesRequest true "Aliases"
// @Success 200 {object} models.Deck
// @Failure 404 {object} map[string]string
// @Router /decks/{alias}/aliases [post]
func (h *DeckHandler) AddAliases(c *gin.Context) {
	var req models.AddAliasesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	deck, err := h.deckService.AddAliases(c.Request.Context(), c.Param("alias"), req.Aliases)
	if err != nil {
		respondError(c, h.logger, err, "Failed to add aliases")
		return
	}
	c.JSON(http.StatusOK, deck)
}

// ReloadCatalog imports the deck catalog file again
// @Summary Reload deck catalog (owner)
// @Tags decks
// @Security BearerAuth
// @Produce json
// @Success 200 {object} map[string]int
// @Failure 404 {object} map[string]string
// @Router /decks/reload [post]
func (h *DeckHandler) ReloadCatalog(c *gin.Context) {
	if h.catalogPath == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "No deck catalog configured"})
		return
	}

	added, err := h.deckService.LoadCatalogFile(c.Request.Context(), h.catalogPath)
	if err != nil {
		respondError(c, h.logger, err, "Failed to reload deck catalog")
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": added})
}
