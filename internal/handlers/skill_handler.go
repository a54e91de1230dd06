package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tradeskills/tradeskills-backend/internal/models"
)

type SkillHandler struct {
	DB *gorm.DB
}

// ListSkills returns the skill catalog, optionally filtered by ?category=.
func (h *SkillHandler) ListSkills(c *fiber.Ctx) error {
	q := h.DB.Order("name ASC")
	if category := c.Query("category"); category != "" {
		q = q.Where("category = ?", category)
	}

	var skills []models.Skill
	if err := q.Find(&skills).Error; err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    skills,
	})
}

type CreateSkillReq struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

func (h *SkillHandler) CreateSkill(c *fiber.Ctx) error {
	var req CreateSkillReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return badRequest(c, "name is required")
	}

	var existing models.Skill
	if err := h.DB.Where("LOWER(name) = LOWER(?)", name).First(&existing).Error; err == nil {
		return badRequest(c, "skill already exists")
	}

	skill := models.Skill{Name: name, Category: strings.TrimSpace(req.Category)}
	if err := h.DB.Create(&skill).Error; err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    skill,
	})
}

type AddUserSkillReq struct {
	SkillID     string `json:"skill_id"`
	HourlyRate  int64  `json:"hourly_rate"`
	Description string `json:"description"`
}

// AddUserSkill registers a skill the caller can teach.
func (h *SkillHandler) AddUserSkill(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}

	var req AddUserSkillReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	skillID, err := uuid.Parse(req.SkillID)
	if err != nil {
		return badRequest(c, "invalid skill_id")
	}
	if req.HourlyRate <= 0 {
		return badRequest(c, "hourly rate must be greater than zero")
	}

	var skill models.Skill
	if err := h.DB.First(&skill, "id = ?", skillID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "skill not found",
		})
	}

	var existing models.UserSkill
	if err := h.DB.Where("user_id = ? AND skill_id = ?", userID, skillID).
		First(&existing).Error; err == nil {
		return badRequest(c, "skill already added")
	}

	us := models.UserSkill{
		UserID:      userID,
		SkillID:     skillID,
		HourlyRate:  req.HourlyRate,
		Description: req.Description,
	}
	if err := h.DB.Create(&us).Error; err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    us,
	})
}

// ListUserSkills lists the skills the caller teaches.
func (h *SkillHandler) ListUserSkills(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}

	var skills []models.UserSkill
	if err := h.DB.Preload("Skill").Where("user_id = ?", userID).
		Order("created_at DESC").Find(&skills).Error; err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    skills,
	})
}

// RemoveUserSkill drops a skill from the caller's teachable list.
func (h *SkillHandler) RemoveUserSkill(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}
	skillID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid skill id")
	}

	res := h.DB.Where("user_id = ? AND skill_id = ?", userID, skillID).
		Delete(&models.UserSkill{})
	if res.Error != nil {
		return fail(c, res.Error)
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "skill not found",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Skill removed",
	})
}
